package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/learner"
)

const learnerTable = `"learners"`

var learnerColumns = []string{"id", "name", "email", "phone", "status", "total_courses", "created_by", "created_at", "updated_at"}

type learnerRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Phone        string      `db:"phone"`
	Status       string      `db:"status"`
	TotalCourses int         `db:"total_courses"`
	CreatedBy    null.String `db:"created_by"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r learnerRow) toLearner() learner.Learner {
	return learner.Learner{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Status:       learner.Status(r.Status),
		TotalCourses: r.TotalCourses,
		CreatedBy:    r.CreatedBy.String,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type learnerRepository struct {
	exec core.DBExecutor
}

var _ learner.Repository = (*learnerRepository)(nil) // interface compliance check

func NewLearnerRepository(exec core.DBExecutor) *learnerRepository {
	return &learnerRepository{exec: exec}
}

func (repo learnerRepository) CreateLearner(ctx context.Context, l learner.Learner) (learner.Learner, error) {
	l.ID = uuid.New().String()
	b := psql.Insert(learnerTable).Columns(learnerColumns...).
		Values(
			l.ID, l.Name, l.Email, l.Phone, string(l.Status), l.TotalCourses,
			optString(l.CreatedBy), l.CreatedAt.UTC(), l.UpdatedAt.UTC(),
		).
		Suffix("RETURNING *")

	var r learnerRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return learner.Learner{}, errors.Wrap(err, "inserting learner")
	}
	return r.toLearner(), nil
}

func (repo learnerRepository) QueryLearners(ctx context.Context, filter *learner.QueryFilter, ordering []core.DBOrdering) ([]learner.Learner, error) {
	b := psql.Select(learnerColumns...).From(learnerTable)

	if filter != nil {
		if filter.Search != "" {
			b = b.Where(ilikeAny(filter.Search, "name", "email", "phone"))
		}
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, s := range filter.Status {
				statuses = append(statuses, string(s))
			}
			b = b.Where(sq.Eq{"status": statuses})
		}
	}
	b = orderBy(b, ordering, learner.OrderingFields...)

	var rows []learnerRow
	if err := selectAll(ctx, repo.exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying learners")
	}
	learners := make([]learner.Learner, 0, len(rows))
	for _, r := range rows {
		learners = append(learners, r.toLearner())
	}
	return learners, nil
}

func (repo learnerRepository) GetLearner(ctx context.Context, id string) (learner.Learner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return learner.Learner{}, learner.ErrNotFound
	}
	b := psql.Select(learnerColumns...).From(learnerTable).Where(sq.Eq{"id": id})

	var r learnerRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return learner.Learner{}, trapNoRowsErr(err, learner.ErrNotFound, "finding learner")
	}
	return r.toLearner(), nil
}

func (repo learnerRepository) UpdateLearner(ctx context.Context, l learner.Learner) (learner.Learner, error) {
	b := psql.Update(learnerTable).SetMap(map[string]interface{}{
		"name":       l.Name,
		"email":      l.Email,
		"phone":      l.Phone,
		"status":     string(l.Status),
		"updated_at": l.UpdatedAt.UTC(),
	}).Where(sq.Eq{"id": l.ID}).Suffix("RETURNING *")

	var r learnerRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return learner.Learner{}, trapNoRowsErr(err, learner.ErrNotFound, "updating learner")
	}
	return r.toLearner(), nil
}

// DeleteLearner deletes the learner. Its assignments and messages are deleted in cascade.
func (repo learnerRepository) DeleteLearner(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return learner.ErrNotFound
	}
	b := psql.Delete(learnerTable).Where(sq.Eq{"id": id})
	if err := execAffecting(ctx, repo.exec, b, learner.ErrNotFound); err != nil {
		if err == learner.ErrNotFound {
			return err
		}
		return errors.Wrap(err, "deleting learner")
	}
	return nil
}

func (repo learnerRepository) IncrementTotalCourses(ctx context.Context, id string, delta int) error {
	b := psql.Update(learnerTable).
		Set("total_courses", sq.Expr("total_courses + ?", delta)).
		Where(sq.Eq{"id": id})
	if err := execAffecting(ctx, repo.exec, b, learner.ErrNotFound); err != nil {
		if err == learner.ErrNotFound {
			return err
		}
		return errors.Wrap(err, "incrementing learner total courses")
	}
	return nil
}
