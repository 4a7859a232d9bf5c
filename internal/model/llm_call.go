package model

import "time"

// Operation names the kind of upstream call being tracked.
type Operation string

const (
	OperationAnalysis Operation = "analysis"
	OperationVisual   Operation = "visual"
	OperationChat     Operation = "chat"
)

// LLMCall tracks each call to an upstream model for cost monitoring.
// Subject is the ticker for analyses, or a short label for visuals and chat.
type LLMCall struct {
	ID         int64     `db:"id" json:"id"`
	Subject    string    `db:"subject" json:"subject"`
	Operation  Operation `db:"operation" json:"operation"`
	Provider   string    `db:"provider" json:"provider"`
	Model      string    `db:"model" json:"model"`
	Success    bool      `db:"success" json:"success"`
	DurationMs *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// OperationStats summarizes the calls made for one operation.
type OperationStats struct {
	Operation Operation `db:"operation" json:"operation"`
	Total     int64     `db:"total" json:"total"`
	Succeeded int64     `db:"succeeded" json:"succeeded"`
	Failed    int64     `db:"failed" json:"failed"`
}
