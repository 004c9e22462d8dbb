package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/course"
)

var (
	errNegativeCounter = errors.New("counter cannot be negative")
	errDuplicateDay    = errors.New("duplicate day number for course")
	errForeignKey      = errors.New("referenced row does not exist")

	courseComparators = comparators[course.Course]{
		"name":              func(a, b course.Course) int { return strings.Compare(a.Name, b.Name) },
		"category":          func(a, b course.Course) int { return strings.Compare(a.Category, b.Category) },
		"status":            func(a, b course.Course) int { return strings.Compare(string(a.Status), string(b.Status)) },
		"total_enrollments": func(a, b course.Course) int { return compareInts(a.TotalEnrollments, b.TotalEnrollments) },
		"created_at":        func(a, b course.Course) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"updated_at":        func(a, b course.Course) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	}
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	tbl := repo.db.course
	tbl.Lock()
	defer tbl.Unlock()

	c.ID = newID()
	c.Days = nil
	tbl.insert(c.ID, c)
	return c, nil
}

func (repo *courseRepository) CreateCourseDays(_ context.Context, days []course.Day) ([]course.Day, error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()
	tbl := repo.db.courseDay
	tbl.Lock()
	defer tbl.Unlock()

	// all or nothing, like a multi-row INSERT
	taken := make(map[string]map[int]bool)
	for _, d := range tbl.all() {
		if taken[d.CourseID] == nil {
			taken[d.CourseID] = make(map[int]bool)
		}
		taken[d.CourseID][d.DayNumber] = true
	}
	for _, d := range days {
		if _, ok := repo.db.course.rows[d.CourseID]; !ok {
			return nil, course.ErrNotFound
		}
		if taken[d.CourseID] == nil {
			taken[d.CourseID] = make(map[int]bool)
		}
		if taken[d.CourseID][d.DayNumber] {
			return nil, errDuplicateDay
		}
		taken[d.CourseID][d.DayNumber] = true
	}

	created := make([]course.Day, 0, len(days))
	for _, d := range days {
		d.ID = newID()
		tbl.insert(d.ID, d)
		created = append(created, d)
	}
	return created, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	tbl := repo.db.course
	tbl.RLock()
	defer tbl.RUnlock()

	var ids map[string]bool
	if filter != nil && filter.IDs != nil {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	courses := make([]course.Course, 0, len(tbl.rows))
	for _, c := range tbl.all() {
		if filter != nil {
			if filter.Search != "" &&
				!(containsFold(c.Name, filter.Search) || containsFold(c.Description, filter.Search) || containsFold(c.Category, filter.Search)) {
				continue
			}
			if len(filter.Status) > 0 && !hasCourseStatus(c.Status, filter.Status) {
				continue
			}
			if ids != nil && !ids[c.ID] {
				continue
			}
		}
		courses = append(courses, c)
	}
	orderBy(courses, ordering, courseComparators)
	return courses, nil
}

func hasCourseStatus(s course.Status, in []course.Status) bool {
	for _, st := range in {
		if s == st {
			return true
		}
	}
	return false
}

func (repo *courseRepository) QueryCourseDays(_ context.Context, courseIDs ...string) ([]course.Day, error) {
	tbl := repo.db.courseDay
	tbl.RLock()
	defer tbl.RUnlock()

	ids := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		ids[id] = true
	}
	days := make([]course.Day, 0)
	for _, d := range tbl.all() {
		if ids[d.CourseID] {
			days = append(days, d)
		}
	}
	sort.SliceStable(days, func(i, j int) bool {
		if days[i].CourseID != days[j].CourseID {
			return days[i].CourseID < days[j].CourseID
		}
		return days[i].DayNumber < days[j].DayNumber
	})
	return days, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	tbl := repo.db.course
	tbl.RLock()
	defer tbl.RUnlock()

	if r, ok := tbl.rows[id]; ok {
		return r.val, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	tbl := repo.db.course
	tbl.Lock()
	defer tbl.Unlock()

	r, ok := tbl.rows[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	// counters are only changed through IncrementEnrollments
	c.TotalEnrollments = r.val.TotalEnrollments
	c.Days = nil
	r.val = c
	return c, nil
}

func (repo *courseRepository) DeleteCourseDays(_ context.Context, courseID string) error {
	tbl := repo.db.courseDay
	tbl.Lock()
	defer tbl.Unlock()

	for id, r := range tbl.rows {
		if r.val.CourseID == courseID {
			delete(tbl.rows, id)
		}
	}
	return nil
}

// DeleteCourse deletes the course along with its days, assignments and messages.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	tbl := repo.db.course
	tbl.Lock()
	if _, ok := tbl.rows[id]; !ok {
		tbl.Unlock()
		return course.ErrNotFound
	}
	delete(tbl.rows, id)
	tbl.Unlock()

	if err := repo.DeleteCourseDays(ctx, id); err != nil {
		return err
	}
	repo.db.assignment.Lock()
	for aid, r := range repo.db.assignment.rows {
		if r.val.CourseID == id {
			delete(repo.db.assignment.rows, aid)
		}
	}
	repo.db.assignment.Unlock()

	repo.db.message.Lock()
	for mid, r := range repo.db.message.rows {
		if r.val.CourseID == id {
			delete(repo.db.message.rows, mid)
		}
	}
	repo.db.message.Unlock()
	return nil
}

func (repo *courseRepository) IncrementEnrollments(_ context.Context, id string, delta int) error {
	tbl := repo.db.course
	tbl.Lock()
	defer tbl.Unlock()

	r, ok := tbl.rows[id]
	if !ok {
		return course.ErrNotFound
	}
	if r.val.TotalEnrollments+delta < 0 {
		return errNegativeCounter
	}
	r.val.TotalEnrollments += delta
	return nil
}
