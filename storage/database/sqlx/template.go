package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/course"
)

const templateTable = `"alfred_course_data"`

type templateDayRow struct {
	ID          int64       `db:"id"`
	CourseName  string      `db:"course_name"`
	Day         int         `db:"day"`
	Module1Text null.String `db:"module_1_text"`
	Module2Text null.String `db:"module_2_text"`
	Module3Text null.String `db:"module_3_text"`
	CreatedAt   time.Time   `db:"created_at"`
}

type templateCourseRow struct {
	CourseName string `db:"course_name"`
	Days       int    `db:"days"`
}

// templateRepository reads the template catalogue. The catalogue is fed outside of the app.
type templateRepository struct {
	exec core.DBExecutor
}

var _ course.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(exec core.DBExecutor) *templateRepository {
	return &templateRepository{exec: exec}
}

func (repo templateRepository) QueryTemplateDays(ctx context.Context, courseName string) ([]course.TemplateDay, error) {
	b := psql.Select("id", "course_name", "day", "module_1_text", "module_2_text", "module_3_text", "created_at").
		From(templateTable).
		Where(sq.Eq{"course_name": courseName}).
		OrderBy("day", "id")

	var rows []templateDayRow
	if err := selectAll(ctx, repo.exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying template days")
	}
	tds := make([]course.TemplateDay, 0, len(rows))
	for _, r := range rows {
		tds = append(tds, course.TemplateDay{
			ID:          r.ID,
			CourseName:  r.CourseName,
			Day:         r.Day,
			Module1Text: r.Module1Text.String,
			Module2Text: r.Module2Text.String,
			Module3Text: r.Module3Text.String,
			CreatedAt:   r.CreatedAt.UTC(),
		})
	}
	return tds, nil
}

func (repo templateRepository) QueryTemplateCourses(ctx context.Context) ([]course.TemplateCourse, error) {
	b := psql.Select("course_name", "COUNT(*) AS days").
		From(templateTable).
		GroupBy("course_name").
		OrderBy("course_name")

	var rows []templateCourseRow
	if err := selectAll(ctx, repo.exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying template courses")
	}
	tcs := make([]course.TemplateCourse, 0, len(rows))
	for _, r := range rows {
		tcs = append(tcs, course.TemplateCourse{
			ID:   course.TemplateID(r.CourseName),
			Name: r.CourseName,
			Days: r.Days,
		})
	}
	return tcs, nil
}
