package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/assignment"
)

const assignmentTable = `"learner_courses"`

var assignmentColumns = []string{
	"id", "learner_id", "course_id", "start_date", "status", "completion_percentage", "created_at", "updated_at",
}

type assignmentRow struct {
	ID                   string    `db:"id"`
	LearnerID            string    `db:"learner_id"`
	CourseID             string    `db:"course_id"`
	StartDate            time.Time `db:"start_date"`
	Status               string    `db:"status"`
	CompletionPercentage int       `db:"completion_percentage"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (r assignmentRow) toAssignment() assignment.Assignment {
	return assignment.Assignment{
		ID:                   r.ID,
		LearnerID:            r.LearnerID,
		CourseID:             r.CourseID,
		StartDate:            r.StartDate.UTC(),
		Status:               assignment.Status(r.Status),
		CompletionPercentage: r.CompletionPercentage,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
}

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{exec: exec}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	b := psql.Insert(assignmentTable).Columns(assignmentColumns...).
		Values(
			a.ID, a.LearnerID, a.CourseID, a.StartDate.UTC(), string(a.Status),
			a.CompletionPercentage, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
		).
		Suffix("RETURNING *")

	var r assignmentRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return r.toAssignment(), nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter *assignment.QueryFilter) ([]assignment.Assignment, error) {
	b := psql.Select(assignmentColumns...).From(assignmentTable)

	if filter != nil {
		if filter.LearnerID != "" {
			if _, err := uuid.Parse(filter.LearnerID); err != nil {
				return []assignment.Assignment{}, nil
			}
			b = b.Where(sq.Eq{"learner_id": filter.LearnerID})
		}
		if filter.CourseID != "" {
			if _, err := uuid.Parse(filter.CourseID); err != nil {
				return []assignment.Assignment{}, nil
			}
			b = b.Where(sq.Eq{"course_id": filter.CourseID})
		}
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, s := range filter.Status {
				statuses = append(statuses, string(s))
			}
			b = b.Where(sq.Eq{"status": statuses})
		}
		if !filter.StartsBy.IsZero() {
			b = b.Where(sq.LtOrEq{"start_date": filter.StartsBy.UTC()})
		}
	}
	b = b.OrderBy("start_date", "created_at")

	var rows []assignmentRow
	if err := selectAll(ctx, repo.exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	as := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		as = append(as, r.toAssignment())
	}
	return as, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	b := psql.Select(assignmentColumns...).From(assignmentTable).Where(sq.Eq{"id": id})

	var r assignmentRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "finding assignment")
	}
	return r.toAssignment(), nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	b := psql.Update(assignmentTable).SetMap(map[string]interface{}{
		"start_date":            a.StartDate.UTC(),
		"status":                string(a.Status),
		"completion_percentage": a.CompletionPercentage,
		"updated_at":            a.UpdatedAt.UTC(),
	}).Where(sq.Eq{"id": a.ID}).Suffix("RETURNING *")

	var r assignmentRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "updating assignment")
	}
	return r.toAssignment(), nil
}

func (repo assignmentRepository) LearnerIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return []string{}, nil
	}
	b := psql.Select("learner_id").From(assignmentTable).Where(sq.Eq{"course_id": courseID})

	ids := make([]string, 0)
	if err := selectAll(ctx, repo.exec, &ids, b); err != nil {
		return nil, errors.Wrap(err, "querying course learners")
	}
	return ids, nil
}

func (repo assignmentRepository) CourseIDsByLearner(ctx context.Context, learnerID string) ([]string, error) {
	if _, err := uuid.Parse(learnerID); err != nil {
		return []string{}, nil
	}
	b := psql.Select("course_id").From(assignmentTable).Where(sq.Eq{"learner_id": learnerID})

	ids := make([]string, 0)
	if err := selectAll(ctx, repo.exec, &ids, b); err != nil {
		return nil, errors.Wrap(err, "querying learner courses")
	}
	return ids, nil
}
