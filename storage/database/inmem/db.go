// Package inmemdb implements the repositories in memory. Used by tests and by local runs without PostgreSQL.
package inmemdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/assignment"
	"github.com/trezcool/microlearn/core/course"
	"github.com/trezcool/microlearn/core/learner"
	"github.com/trezcool/microlearn/core/notification"
	"github.com/trezcool/microlearn/core/user"
)

type (
	DB struct {
		user        *table[user.User]
		course      *table[course.Course]
		courseDay   *table[course.Day]
		template    *table[course.TemplateDay]
		learner     *table[learner.Learner]
		assignment  *table[assignment.Assignment]
		message     *table[notification.Message]
		templateSeq int64
	}

	table[T any] struct {
		sync.RWMutex
		seq  int64
		rows map[string]*record[T]
	}

	record[T any] struct {
		seq int64
		val T
	}

	// comparators compare two rows on an orderable field: <0, 0 or >0.
	comparators[T any] map[string]func(a, b T) int
)

func Open() *DB {
	return &DB{
		user:       newTable[user.User](),
		course:     newTable[course.Course](),
		courseDay:  newTable[course.Day](),
		template:   newTable[course.TemplateDay](),
		learner:    newTable[learner.Learner](),
		assignment: newTable[assignment.Assignment](),
		message:    newTable[notification.Message](),
	}
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*record[T])}
}

func newID() string {
	return uuid.New().String()
}

// insert must be called with the table locked.
func (t *table[T]) insert(id string, val T) {
	t.seq++
	t.rows[id] = &record[T]{seq: t.seq, val: val}
}

// all returns the rows in insertion order. Must be called with the table (r)locked.
func (t *table[T]) all() []T {
	recs := make([]*record[T], 0, len(t.rows))
	for _, r := range t.rows {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	vals := make([]T, 0, len(recs))
	for _, r := range recs {
		vals = append(vals, r.val)
	}
	return vals
}

// orderBy sorts rows by `ordering`, ignoring unknown fields. Ties keep the insertion order.
func orderBy[T any](rows []T, ordering []core.DBOrdering, cmps comparators[T]) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := cmps[ord.Field]
			if !ok {
				continue
			}
			c := cmp(rows[i], rows[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
