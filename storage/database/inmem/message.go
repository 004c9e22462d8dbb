package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/notification"
)

var messageComparators = comparators[notification.Message]{
	"sent_at": func(a, b notification.Message) int { return a.SentAt.Compare(b.SentAt) },
	"type":    func(a, b notification.Message) int { return strings.Compare(string(a.Type), string(b.Type)) },
	"status":  func(a, b notification.Message) int { return strings.Compare(string(a.Status), string(b.Status)) },
}

type messageRepository struct {
	db *DB
}

var _ notification.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(_ context.Context, m notification.Message) (notification.Message, error) {
	tbl := repo.db.message
	tbl.Lock()
	defer tbl.Unlock()

	m.ID = newID()
	tbl.insert(m.ID, m)
	return m, nil
}

func (repo *messageRepository) QueryMessages(_ context.Context, filter *notification.QueryFilter, ordering []core.DBOrdering) ([]notification.Message, error) {
	tbl := repo.db.message
	tbl.RLock()
	defer tbl.RUnlock()

	msgs := make([]notification.Message, 0, len(tbl.rows))
	for _, m := range tbl.all() {
		if filter != nil {
			if filter.LearnerID != "" && m.LearnerID != filter.LearnerID {
				continue
			}
			if filter.CourseID != "" && m.CourseID != filter.CourseID {
				continue
			}
			if len(filter.Type) > 0 && !hasMessageType(m.Type, filter.Type) {
				continue
			}
			if !filter.SentFrom.IsZero() && m.SentAt.Before(filter.SentFrom) {
				continue
			}
			if !filter.SentTo.IsZero() && m.SentAt.After(filter.SentTo) {
				continue
			}
		}
		msgs = append(msgs, m)
	}
	orderBy(msgs, ordering, messageComparators)
	return msgs, nil
}

func hasMessageType(t notification.Type, in []notification.Type) bool {
	for _, typ := range in {
		if t == typ {
			return true
		}
	}
	return false
}
