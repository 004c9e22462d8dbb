package notification

import (
	"context"
	"time"

	"github.com/trezcool/microlearn/core"
)

type Type string

const (
	TypeWhatsapp Type = "whatsapp"
	TypeEmail    Type = "email"
)

type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// Message is the record of a notification sent to a learner.
type Message struct {
	ID          string    `json:"id"`
	LearnerID   string    `json:"learner_id"`
	CourseID    string    `json:"course_id"`
	CourseDayID string    `json:"course_day_id,omitempty"`
	Type        Type      `json:"type"`
	Status      Status    `json:"status"`
	SentAt      time.Time `json:"sent_at"`    // UTC
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type QueryFilter struct {
	LearnerID string    `query:"learner_id"`
	CourseID  string    `query:"course_id"`
	Type      []Type    `query:"type"`
	SentFrom  time.Time `query:"sent_from"`
	SentTo    time.Time `query:"sent_to"`
}

type Repository interface {
	CreateMessage(ctx context.Context, m Message) (Message, error)
	// QueryMessages applies AND operation on available QueryFilter fields.
	QueryMessages(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Message, error)
}
