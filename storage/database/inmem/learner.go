package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/learner"
)

var learnerComparators = comparators[learner.Learner]{
	"name":          func(a, b learner.Learner) int { return strings.Compare(a.Name, b.Name) },
	"email":         func(a, b learner.Learner) int { return strings.Compare(a.Email, b.Email) },
	"status":        func(a, b learner.Learner) int { return strings.Compare(string(a.Status), string(b.Status)) },
	"total_courses": func(a, b learner.Learner) int { return compareInts(a.TotalCourses, b.TotalCourses) },
	"created_at":    func(a, b learner.Learner) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at":    func(a, b learner.Learner) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type learnerRepository struct {
	db *DB
}

var _ learner.Repository = (*learnerRepository)(nil) // interface compliance check

func NewLearnerRepository(db *DB) *learnerRepository {
	return &learnerRepository{db: db}
}

func (repo *learnerRepository) CreateLearner(_ context.Context, l learner.Learner) (learner.Learner, error) {
	tbl := repo.db.learner
	tbl.Lock()
	defer tbl.Unlock()

	l.ID = newID()
	tbl.insert(l.ID, l)
	return l, nil
}

func (repo *learnerRepository) QueryLearners(_ context.Context, filter *learner.QueryFilter, ordering []core.DBOrdering) ([]learner.Learner, error) {
	tbl := repo.db.learner
	tbl.RLock()
	defer tbl.RUnlock()

	learners := make([]learner.Learner, 0, len(tbl.rows))
	for _, l := range tbl.all() {
		if filter != nil {
			if filter.Search != "" &&
				!(containsFold(l.Name, filter.Search) || containsFold(l.Email, filter.Search) || containsFold(l.Phone, filter.Search)) {
				continue
			}
			if len(filter.Status) > 0 && !hasLearnerStatus(l.Status, filter.Status) {
				continue
			}
		}
		learners = append(learners, l)
	}
	orderBy(learners, ordering, learnerComparators)
	return learners, nil
}

func hasLearnerStatus(s learner.Status, in []learner.Status) bool {
	for _, st := range in {
		if s == st {
			return true
		}
	}
	return false
}

func (repo *learnerRepository) GetLearner(_ context.Context, id string) (learner.Learner, error) {
	tbl := repo.db.learner
	tbl.RLock()
	defer tbl.RUnlock()

	if r, ok := tbl.rows[id]; ok {
		return r.val, nil
	}
	return learner.Learner{}, learner.ErrNotFound
}

func (repo *learnerRepository) UpdateLearner(_ context.Context, l learner.Learner) (learner.Learner, error) {
	tbl := repo.db.learner
	tbl.Lock()
	defer tbl.Unlock()

	r, ok := tbl.rows[l.ID]
	if !ok {
		return learner.Learner{}, learner.ErrNotFound
	}
	// counters are only changed through IncrementTotalCourses
	l.TotalCourses = r.val.TotalCourses
	r.val = l
	return l, nil
}

// DeleteLearner deletes the learner along with their assignments and messages.
func (repo *learnerRepository) DeleteLearner(_ context.Context, id string) error {
	tbl := repo.db.learner
	tbl.Lock()
	if _, ok := tbl.rows[id]; !ok {
		tbl.Unlock()
		return learner.ErrNotFound
	}
	delete(tbl.rows, id)
	tbl.Unlock()

	repo.db.assignment.Lock()
	for aid, r := range repo.db.assignment.rows {
		if r.val.LearnerID == id {
			delete(repo.db.assignment.rows, aid)
		}
	}
	repo.db.assignment.Unlock()

	repo.db.message.Lock()
	for mid, r := range repo.db.message.rows {
		if r.val.LearnerID == id {
			delete(repo.db.message.rows, mid)
		}
	}
	repo.db.message.Unlock()
	return nil
}

func (repo *learnerRepository) IncrementTotalCourses(_ context.Context, id string, delta int) error {
	tbl := repo.db.learner
	tbl.Lock()
	defer tbl.Unlock()

	r, ok := tbl.rows[id]
	if !ok {
		return learner.ErrNotFound
	}
	if r.val.TotalCourses+delta < 0 {
		return errNegativeCounter
	}
	r.val.TotalCourses += delta
	return nil
}
