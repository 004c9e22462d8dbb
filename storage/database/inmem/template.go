package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/course"
)

type templateRepository struct {
	db *DB
}

var _ course.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(db *DB) *templateRepository {
	return &templateRepository{db: db}
}

// AddTemplateDays loads rows into the template catalogue.
func (repo *templateRepository) AddTemplateDays(tds ...course.TemplateDay) []course.TemplateDay {
	tbl := repo.db.template
	tbl.Lock()
	defer tbl.Unlock()

	added := make([]course.TemplateDay, 0, len(tds))
	for _, td := range tds {
		repo.db.templateSeq++
		td.ID = repo.db.templateSeq
		if td.CreatedAt.IsZero() {
			td.CreatedAt = core.NowFunc().UTC()
		}
		tbl.insert(newID(), td)
		added = append(added, td)
	}
	return added
}

func (repo *templateRepository) QueryTemplateDays(_ context.Context, courseName string) ([]course.TemplateDay, error) {
	tbl := repo.db.template
	tbl.RLock()
	defer tbl.RUnlock()

	tds := make([]course.TemplateDay, 0)
	for _, td := range tbl.all() {
		if td.CourseName == courseName {
			tds = append(tds, td)
		}
	}
	sort.SliceStable(tds, func(i, j int) bool { return tds[i].Day < tds[j].Day })
	return tds, nil
}

func (repo *templateRepository) QueryTemplateCourses(_ context.Context) ([]course.TemplateCourse, error) {
	tbl := repo.db.template
	tbl.RLock()
	defer tbl.RUnlock()

	counts := make(map[string]int)
	for _, td := range tbl.all() {
		counts[td.CourseName]++
	}
	tcs := make([]course.TemplateCourse, 0, len(counts))
	for name, n := range counts {
		tcs = append(tcs, course.TemplateCourse{ID: course.TemplateID(name), Name: name, Days: n})
	}
	sort.Slice(tcs, func(i, j int) bool { return tcs[i].Name < tcs[j].Name })
	return tcs, nil
}
