package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/microlearn/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.learner.RLock()
	_, learnerOK := repo.db.learner.rows[a.LearnerID]
	repo.db.learner.RUnlock()
	repo.db.course.RLock()
	_, courseOK := repo.db.course.rows[a.CourseID]
	repo.db.course.RUnlock()
	if !learnerOK || !courseOK {
		return assignment.Assignment{}, errForeignKey
	}

	tbl := repo.db.assignment
	tbl.Lock()
	defer tbl.Unlock()

	a.ID = newID()
	a.Course = nil
	tbl.insert(a.ID, a)
	return a, nil
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter *assignment.QueryFilter) ([]assignment.Assignment, error) {
	tbl := repo.db.assignment
	tbl.RLock()
	defer tbl.RUnlock()

	as := make([]assignment.Assignment, 0, len(tbl.rows))
	for _, a := range tbl.all() {
		if filter != nil {
			if filter.LearnerID != "" && a.LearnerID != filter.LearnerID {
				continue
			}
			if filter.CourseID != "" && a.CourseID != filter.CourseID {
				continue
			}
			if len(filter.Status) > 0 && !hasAssignmentStatus(a.Status, filter.Status) {
				continue
			}
			if !filter.StartsBy.IsZero() && a.StartDate.After(filter.StartsBy) {
				continue
			}
		}
		as = append(as, a)
	}
	sort.SliceStable(as, func(i, j int) bool { return as[i].StartDate.Before(as[j].StartDate) })
	return as, nil
}

func hasAssignmentStatus(s assignment.Status, in []assignment.Status) bool {
	for _, st := range in {
		if s == st {
			return true
		}
	}
	return false
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id string) (assignment.Assignment, error) {
	tbl := repo.db.assignment
	tbl.RLock()
	defer tbl.RUnlock()

	if r, ok := tbl.rows[id]; ok {
		return r.val, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	tbl := repo.db.assignment
	tbl.Lock()
	defer tbl.Unlock()

	r, ok := tbl.rows[a.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	a.Course = nil
	r.val = a
	return a, nil
}

func (repo *assignmentRepository) LearnerIDsByCourse(_ context.Context, courseID string) ([]string, error) {
	tbl := repo.db.assignment
	tbl.RLock()
	defer tbl.RUnlock()

	ids := make([]string, 0)
	for _, a := range tbl.all() {
		if a.CourseID == courseID {
			ids = append(ids, a.LearnerID)
		}
	}
	return ids, nil
}

func (repo *assignmentRepository) CourseIDsByLearner(_ context.Context, learnerID string) ([]string, error) {
	tbl := repo.db.assignment
	tbl.RLock()
	defer tbl.RUnlock()

	ids := make([]string, 0)
	for _, a := range tbl.all() {
		if a.LearnerID == learnerID {
			ids = append(ids, a.CourseID)
		}
	}
	return ids, nil
}
