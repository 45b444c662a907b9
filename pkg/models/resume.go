package models

// ParsedResume represents the structured resume data extracted by the LLM.
// Every field is optional from the model's point of view; callers must
// handle nil pointers and empty slices.
type ParsedResume struct {
	Name           *string         `json:"name"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Location       *string         `json:"location"`
	Summary        *string         `json:"summary"`
	Skills         []string        `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Projects       []Project       `json:"projects"`
	SocialLinks    SocialLinks     `json:"social_links"`
	Certifications []Certification `json:"certifications"`
	Extras         Extras          `json:"extras"`
}

// Experience represents a single work experience entry
type Experience struct {
	JobTitle    *string `json:"job_title"`
	Company     *string `json:"company"`
	Location    *string `json:"location"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Description *string `json:"description"`
}

// Education represents a single education entry
type Education struct {
	Degree      *string `json:"degree"`
	Field       *string `json:"field"`
	Institution *string `json:"institution"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// Project represents a single project entry
type Project struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	TechStack   []string `json:"tech_stack"`
	Link        *string  `json:"link"`
}

// SocialLinks holds the candidate's profile URLs
type SocialLinks struct {
	LinkedIn  *string `json:"linkedin"`
	GitHub    *string `json:"github"`
	Portfolio *string `json:"portfolio"`
}

// Certification represents a single certification entry
type Certification struct {
	Name   *string `json:"name"`
	Issuer *string `json:"issuer"`
	Year   *string `json:"year"`
}

// Extras carries auxiliary data the model is asked to populate
type Extras struct {
	RawTextExcerpt *string `json:"raw_text_excerpt"`
}

// ParseFailure is the degraded result returned when the model's output is
// not valid JSON. It is delivered to the HTTP caller in place of a
// ParsedResume; callers branch on the presence of the error field.
type ParseFailure struct {
	Error     string `json:"error"`
	RawOutput string `json:"raw_output"`
}

// ResumeParseResult is the outcome of normalizing a raw model reply.
// Exactly one of Resume or Failure is set.
type ResumeParseResult struct {
	Resume          *ParsedResume
	MissingFields   []string
	MalformedFields []string
	Failure         *ParseFailure
}

// ParsedResumeResponse is the HTTP body for a successful parse. The field
// reports come from the schema-validating decoder and are omitted when the
// model's output matched the declared shape.
type ParsedResumeResponse struct {
	*ParsedResume
	MissingFields   []string `json:"missing_fields,omitempty"`
	MalformedFields []string `json:"malformed_fields,omitempty"`
}
