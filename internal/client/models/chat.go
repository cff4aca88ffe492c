package models

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single conversational turn as exchanged with the backend.
// Timestamp is an ISO-8601 string; the client treats it as opaque beyond
// ordering.
type ChatMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ChatRecord is a ChatMessage as persisted in the local ledger. Date groups
// records into a calendar-day conversation (YYYY-MM-DD). Synced flips
// false→true once the backend has durably confirmed the conversation; it
// never flips back.
type ChatRecord struct {
	ID        int64
	Date      string
	Message   ChatMessage
	Synced    bool
	CreatedAt int64 // epoch milliseconds
}

// UnsyncedBatch groups the not-yet-confirmed messages of one calendar day
// for retry/upload.
type UnsyncedBatch struct {
	Date     string
	Messages []ChatMessage
}

// ChatAnalysis is the diary artifact returned by the end-of-conversation
// endpoint.
type ChatAnalysis struct {
	DiaryID int64  `json:"diaryId,omitempty"`
	Emotion string `json:"emotion"`
	Summary string `json:"summary"`
}
