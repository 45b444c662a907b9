package models

import "time"

// Sender identifies who authored a history entry
type Sender string

const (
	SenderUser      Sender = "user"
	SenderUserImage Sender = "user-with-image"
	SenderAssistant Sender = "assistant"
)

// HistoryTimeFormat is the wall-clock, second-precision timestamp layout
// used for persisted history entries.
const HistoryTimeFormat = "2006-01-02 15:04:05"

// HistoryEntry is a single exchanged message in a user's history log
type HistoryEntry struct {
	Timestamp string `json:"timestamp"`
	Sender    Sender `json:"sender"`
	Message   string `json:"message"`
}

// NewHistoryEntry creates a history entry stamped with the current time
func NewHistoryEntry(sender Sender, message string) HistoryEntry {
	return HistoryEntry{
		Timestamp: time.Now().Format(HistoryTimeFormat),
		Sender:    sender,
		Message:   message,
	}
}

// GenerateRequest describes one model invocation. Parts are ordered text
// segments sent as a single user turn; Image optionally attaches inline
// image bytes for vision-capable models.
type GenerateRequest struct {
	Parts     []string
	Image     []byte
	ImageMIME string
}

// ModelReply is the provider-agnostic shape of an LLM response. Text is the
// provider's aggregated reply; Parts carries the individual text-bearing
// parts so normalization can reassemble a reply when Text is empty.
type ModelReply struct {
	Text  string   `json:"text"`
	Parts []string `json:"parts,omitempty"`
}
