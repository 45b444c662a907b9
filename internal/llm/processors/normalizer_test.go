package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvlens/pkg/models"
)

const sampleResumeJSON = `{
	"name": "Jane Doe",
	"email": "jane@example.com",
	"phone": "+1 555 0100",
	"location": "Berlin",
	"summary": "Backend engineer.",
	"skills": ["Go", "Postgres"],
	"experience": [{"job_title": "Engineer", "company": "Acme", "location": null, "start_date": "2020", "end_date": null, "description": "Built things."}],
	"education": [],
	"projects": [],
	"social_links": {"linkedin": null, "github": "https://github.com/janedoe", "portfolio": null},
	"certifications": [],
	"extras": {"raw_text_excerpt": "Jane Doe, Backend engineer"}
}`

func TestNormalizeResumeJSONPlainAndFencedAgree(t *testing.T) {
	n := NewResponseNormalizer()

	plain := n.NormalizeResumeJSON(sampleResumeJSON)
	fenced := n.NormalizeResumeJSON("```json\n" + sampleResumeJSON + "\n```")

	require.Nil(t, plain.Failure)
	require.Nil(t, fenced.Failure)
	assert.Equal(t, plain.Resume, fenced.Resume)

	require.NotNil(t, plain.Resume.Name)
	assert.Equal(t, "Jane Doe", *plain.Resume.Name)
	assert.Equal(t, []string{"Go", "Postgres"}, plain.Resume.Skills)
	require.Len(t, plain.Resume.Experience, 1)
	assert.Equal(t, "Acme", *plain.Resume.Experience[0].Company)
	assert.Nil(t, plain.Resume.SocialLinks.LinkedIn)
	require.NotNil(t, plain.Resume.SocialLinks.GitHub)
	assert.Empty(t, plain.MissingFields)
	assert.Empty(t, plain.MalformedFields)
}

func TestNormalizeResumeJSONBareFence(t *testing.T) {
	n := NewResponseNormalizer()

	result := n.NormalizeResumeJSON("```\n" + sampleResumeJSON + "\n```")
	require.Nil(t, result.Failure)
	assert.Equal(t, "Jane Doe", *result.Resume.Name)
}

func TestNormalizeResumeJSONParseFailure(t *testing.T) {
	n := NewResponseNormalizer()

	result := n.NormalizeResumeJSON("  {not json at all  ")
	require.NotNil(t, result.Failure)
	assert.Nil(t, result.Resume)
	assert.Equal(t, "JSON parsing failed", result.Failure.Error)
	// raw_output carries the cleaned text verbatim
	assert.Equal(t, "{not json at all", result.Failure.RawOutput)
}

func TestNormalizeResumeJSONReportsMissingFields(t *testing.T) {
	n := NewResponseNormalizer()

	result := n.NormalizeResumeJSON(`{"name": "Jane Doe", "skills": ["Go"]}`)
	require.Nil(t, result.Failure)
	assert.Equal(t, "Jane Doe", *result.Resume.Name)
	assert.Contains(t, result.MissingFields, "email")
	assert.Contains(t, result.MissingFields, "experience")
	assert.NotContains(t, result.MissingFields, "skills")
}

func TestNormalizeResumeJSONReportsMalformedFields(t *testing.T) {
	n := NewResponseNormalizer()

	// skills should be an array, experience a list of records
	result := n.NormalizeResumeJSON(`{"name": "Jane Doe", "skills": "Go", "experience": 42}`)
	require.Nil(t, result.Failure)
	assert.Equal(t, "Jane Doe", *result.Resume.Name)
	assert.Contains(t, result.MalformedFields, "skills")
	assert.Contains(t, result.MalformedFields, "experience")
	assert.Empty(t, result.Resume.Skills)
	assert.Empty(t, result.Resume.Experience)
}

func TestNormalizeChatTextPrefersAggregatedText(t *testing.T) {
	n := NewResponseNormalizer()

	text := n.NormalizeChatText(&models.ModelReply{
		Text:  "aggregated answer",
		Parts: []string{"part", " answer"},
	})
	assert.Equal(t, "aggregated answer", text)
}

func TestNormalizeChatTextConcatenatesParts(t *testing.T) {
	n := NewResponseNormalizer()

	text := n.NormalizeChatText(&models.ModelReply{
		Parts: []string{"first ", "second"},
	})
	assert.Equal(t, "first second", text)
}

func TestNormalizeChatTextApologyFallback(t *testing.T) {
	n := NewResponseNormalizer()

	apology := "I couldn't understand this image properly, sorry."
	assert.Equal(t, apology, n.NormalizeChatText(&models.ModelReply{}))
	assert.Equal(t, apology, n.NormalizeChatText(nil))
	assert.Equal(t, apology, n.NormalizeChatText(&models.ModelReply{Parts: []string{"  ", ""}}))
}
