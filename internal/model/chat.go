package model

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in a chat transcript. Transcripts are append-only
// and live only as long as the process.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
