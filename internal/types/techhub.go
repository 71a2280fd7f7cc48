package types

import "time"

type ChatMessageKind string

const (
	ChatKindMessage  ChatMessageKind = "message"
	ChatKindReply    ChatMessageKind = "ai_reply"
	ChatKindJobShare ChatMessageKind = "job_share"
	ChatKindActivity ChatMessageKind = "activity"
)

const (
	TechHubGroupRoom = "group"
	TechHubDMPrefix  = "dm:"
)

type JobShareCard struct {
	SubmissionID string   `json:"submissionId,omitempty"`
	Category     string   `json:"category"`
	ServiceType  string   `json:"serviceType"`
	Location     string   `json:"location,omitempty"`
	PhotoURLs    []string `json:"photoUrls,omitempty"`
	Duration     int      `json:"duration,omitempty"`
}

// ChatMessage is one entry in a Tech Hub room feed. Feeds are held in memory only.
type ChatMessage struct {
	ID         string          `json:"id"`
	Room       string          `json:"room"`
	Kind       ChatMessageKind `json:"kind"`
	AuthorID   string          `json:"authorId"`
	AuthorName string          `json:"authorName"`
	Text       string          `json:"text"`
	JobShare   *JobShareCard   `json:"jobShare,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
