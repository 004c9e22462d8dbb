package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/notification"
)

const messageTable = `"messages"`

var messageColumns = []string{"id", "learner_id", "course_id", "course_day_id", "type", "status", "sent_at", "created_at"}

type messageRow struct {
	ID          string      `db:"id"`
	LearnerID   string      `db:"learner_id"`
	CourseID    string      `db:"course_id"`
	CourseDayID null.String `db:"course_day_id"`
	Type        string      `db:"type"`
	Status      string      `db:"status"`
	SentAt      time.Time   `db:"sent_at"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r messageRow) toMessage() notification.Message {
	return notification.Message{
		ID:          r.ID,
		LearnerID:   r.LearnerID,
		CourseID:    r.CourseID,
		CourseDayID: r.CourseDayID.String,
		Type:        notification.Type(r.Type),
		Status:      notification.Status(r.Status),
		SentAt:      r.SentAt.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type messageRepository struct {
	exec core.DBExecutor
}

var _ notification.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(exec core.DBExecutor) *messageRepository {
	return &messageRepository{exec: exec}
}

func (repo messageRepository) CreateMessage(ctx context.Context, m notification.Message) (notification.Message, error) {
	m.ID = uuid.New().String()
	b := psql.Insert(messageTable).Columns(messageColumns...).
		Values(
			m.ID, m.LearnerID, m.CourseID, optString(m.CourseDayID), string(m.Type), string(m.Status),
			m.SentAt.UTC(), m.CreatedAt.UTC(),
		).
		Suffix("RETURNING *")

	var r messageRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return notification.Message{}, errors.Wrap(err, "inserting message")
	}
	return r.toMessage(), nil
}

func (repo messageRepository) QueryMessages(ctx context.Context, filter *notification.QueryFilter, ordering []core.DBOrdering) ([]notification.Message, error) {
	b := psql.Select(messageColumns...).From(messageTable)

	if filter != nil {
		for col, id := range map[string]string{"learner_id": filter.LearnerID, "course_id": filter.CourseID} {
			if id == "" {
				continue
			}
			if _, err := uuid.Parse(id); err != nil {
				return []notification.Message{}, nil
			}
			b = b.Where(sq.Eq{col: id})
		}
		if len(filter.Type) > 0 {
			types := make([]string, 0, len(filter.Type))
			for _, t := range filter.Type {
				types = append(types, string(t))
			}
			b = b.Where(sq.Eq{"type": types})
		}
		if !filter.SentFrom.IsZero() {
			b = b.Where(sq.GtOrEq{"sent_at": filter.SentFrom.UTC()})
		}
		if !filter.SentTo.IsZero() {
			b = b.Where(sq.LtOrEq{"sent_at": filter.SentTo.UTC()})
		}
	}
	b = orderBy(b, ordering, notification.OrderingFields...)

	var rows []messageRow
	if err := selectAll(ctx, repo.exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	msgs := make([]notification.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.toMessage())
	}
	return msgs, nil
}
