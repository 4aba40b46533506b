package models

// EmailInput is the immutable input to a single workflow run. It is never
// persisted by the workflow itself.
type EmailInput struct {
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	Attachments []FileAttachment `json:"-"`
}

// FileAttachment is one uploaded document, exclusively owned by its
// workflow run. Data is fully buffered so that document analysis and
// tamper detection can each read the same bytes independently.
type FileAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}
