package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/course"
)

const (
	courseTable    = `"courses"`
	courseDayTable = `"course_days"`
)

var (
	courseColumns = []string{
		"id", "name", "description", "category", "language", "status", "visibility",
		"total_enrollments", "created_by", "created_at", "updated_at",
	}
	courseDayColumns = []string{
		"id", "course_id", "day_number", "title", "info", "media_link",
		"module_1", "module_2", "module_3", "created_at", "updated_at",
	}
)

type courseRow struct {
	ID               string      `db:"id"`
	Name             string      `db:"name"`
	Description      string      `db:"description"`
	Category         string      `db:"category"`
	Language         string      `db:"language"`
	Status           string      `db:"status"`
	Visibility       string      `db:"visibility"`
	TotalEnrollments int         `db:"total_enrollments"`
	CreatedBy        null.String `db:"created_by"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		Category:         r.Category,
		Language:         r.Language,
		Status:           course.Status(r.Status),
		Visibility:       course.Visibility(r.Visibility),
		TotalEnrollments: r.TotalEnrollments,
		CreatedBy:        r.CreatedBy.String,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

type courseDayRow struct {
	ID        string      `db:"id"`
	CourseID  string      `db:"course_id"`
	DayNumber int         `db:"day_number"`
	Title     string      `db:"title"`
	Info      string      `db:"info"`
	MediaLink null.String `db:"media_link"`
	Module1   null.String `db:"module_1"`
	Module2   null.String `db:"module_2"`
	Module3   null.String `db:"module_3"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r courseDayRow) toDay() course.Day {
	return course.Day{
		ID:        r.ID,
		CourseID:  r.CourseID,
		DayNumber: r.DayNumber,
		Title:     r.Title,
		Info:      r.Info,
		MediaLink: r.MediaLink.String,
		Module1:   r.Module1.String,
		Module2:   r.Module2.String,
		Module3:   r.Module3.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func optString(s string) null.String {
	return null.NewString(s, s != "")
}

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{exec: exec}
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = uuid.New().String()
	b := psql.Insert(courseTable).Columns(courseColumns...).
		Values(
			c.ID, c.Name, c.Description, c.Category, c.Language, string(c.Status), string(c.Visibility),
			c.TotalEnrollments, optString(c.CreatedBy), c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		).
		Suffix("RETURNING *")

	var r courseRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return r.toCourse(), nil
}

func (repo courseRepository) CreateCourseDays(ctx context.Context, days []course.Day) ([]course.Day, error) {
	if len(days) == 0 {
		return []course.Day{}, nil
	}

	now := core.NowFunc().UTC()
	b := psql.Insert(courseDayTable).Columns(courseDayColumns...).Suffix("RETURNING *")
	for _, d := range days {
		b = b.Values(
			uuid.New().String(), d.CourseID, d.DayNumber, d.Title, d.Info, optString(d.MediaLink),
			optString(d.Module1), optString(d.Module2), optString(d.Module3), now, now,
		)
	}

	var rows []courseDayRow
	if err := selectAll(ctx, repo.exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "inserting course days")
	}
	created := make([]course.Day, 0, len(rows))
	for _, r := range rows {
		created = append(created, r.toDay())
	}
	return created, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	b := psql.Select(courseColumns...).From(courseTable)

	if filter != nil {
		if filter.Search != "" {
			b = b.Where(ilikeAny(filter.Search, "name", "description", "category"))
		}
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, s := range filter.Status {
				statuses = append(statuses, string(s))
			}
			b = b.Where(sq.Eq{"status": statuses})
		}
		if filter.IDs != nil {
			b = b.Where(sq.Eq{"id": validUUIDs(filter.IDs)})
		}
	}
	b = orderBy(b, ordering, course.OrderingFields...)

	var rows []courseRow
	if err := selectAll(ctx, repo.exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo courseRepository) QueryCourseDays(ctx context.Context, courseIDs ...string) ([]course.Day, error) {
	ids := validUUIDs(courseIDs)
	if len(ids) == 0 {
		return []course.Day{}, nil
	}
	b := psql.Select(courseDayColumns...).From(courseDayTable).
		Where(sq.Eq{"course_id": ids}).
		OrderBy("course_id", "day_number")

	var rows []courseDayRow
	if err := selectAll(ctx, repo.exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying course days")
	}
	days := make([]course.Day, 0, len(rows))
	for _, r := range rows {
		days = append(days, r.toDay())
	}
	return days, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	b := psql.Select(courseColumns...).From(courseTable).Where(sq.Eq{"id": id})

	var r courseRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return r.toCourse(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	b := psql.Update(courseTable).SetMap(map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
		"category":    c.Category,
		"language":    c.Language,
		"status":      string(c.Status),
		"visibility":  string(c.Visibility),
		"updated_at":  c.UpdatedAt.UTC(),
	}).Where(sq.Eq{"id": c.ID}).Suffix("RETURNING *")

	var r courseRow
	if err := getOne(ctx, repo.exec, &r, b); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "updating course")
	}
	return r.toCourse(), nil
}

func (repo courseRepository) DeleteCourseDays(ctx context.Context, courseID string) error {
	b := psql.Delete(courseDayTable).Where(sq.Eq{"course_id": courseID})
	if err := execAffecting(ctx, repo.exec, b, nil); err != nil {
		return errors.Wrap(err, "deleting course days")
	}
	return nil
}

// DeleteCourse deletes the course. Its days, assignments and messages are deleted in cascade.
func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return course.ErrNotFound
	}
	b := psql.Delete(courseTable).Where(sq.Eq{"id": id})
	if err := execAffecting(ctx, repo.exec, b, course.ErrNotFound); err != nil {
		if err == course.ErrNotFound {
			return err
		}
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

func (repo courseRepository) IncrementEnrollments(ctx context.Context, id string, delta int) error {
	b := psql.Update(courseTable).
		Set("total_enrollments", sq.Expr("total_enrollments + ?", delta)).
		Where(sq.Eq{"id": id})
	if err := execAffecting(ctx, repo.exec, b, course.ErrNotFound); err != nil {
		if err == course.ErrNotFound {
			return err
		}
		return errors.Wrap(err, "incrementing course enrollments")
	}
	return nil
}

func validUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}
