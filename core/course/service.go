package course

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrTemplateNotFound = errors.New("template course not found")

	// OrderingFields are the fields courses can be ordered by.
	OrderingFields  = []string{"name", "category", "status", "total_enrollments", "created_at", "updated_at"}
	defaultOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
)

type (
	// Enrollments lists who is enrolled in a course.
	Enrollments interface {
		LearnerIDsByCourse(ctx context.Context, courseID string) ([]string, error)
	}

	// LearnerCounter keeps Learner.TotalCourses in step with the assignments.
	LearnerCounter interface {
		IncrementTotalCourses(ctx context.Context, id string, delta int) error
	}

	Deps struct {
		Repo        Repository
		Templates   TemplateRepository
		Enrollments Enrollments
		Learners    LearnerCounter
		Logger      core.Logger
	}

	Service struct {
		repo        Repository
		tmplRepo    TemplateRepository
		enrollments Enrollments
		learners    LearnerCounter
		logger      core.Logger
	}
)

func NewService(deps Deps) *Service {
	return &Service{
		repo:        deps.Repo,
		tmplRepo:    deps.Templates,
		enrollments: deps.Enrollments,
		learners:    deps.Learners,
		logger:      deps.Logger,
	}
}

// Create inserts the course then its days. If the days cannot be inserted, the course is removed.
func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	now := core.NowFunc().UTC()
	c, err := svc.repo.CreateCourse(ctx, Course{
		Name:        nc.Name,
		Description: nc.Description,
		Category:    nc.Category,
		Language:    nc.Language,
		Status:      nc.Status,
		Visibility:  nc.Visibility,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "inserting course")
	}

	c.Days = []Day{}
	if len(nc.Days) > 0 {
		days, err := svc.repo.CreateCourseDays(ctx, DaysFromForm(c.ID, nc.Days))
		if err != nil {
			svc.discard(ctx, c.ID)
			return Course{}, errors.Wrap(err, "inserting course days")
		}
		c.Days = days
	}
	return c, nil
}

// Query returns the courses matching `filter` with their days, newest first unless ordered otherwise.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	ordering = core.AllowedOrderings(ordering, OrderingFields...)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	courses, err := svc.repo.QueryCourses(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	if len(courses) == 0 {
		return courses, nil
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	days, err := svc.repo.QueryCourseDays(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "querying course days")
	}
	attachDays(courses, days)
	return courses, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	days, err := svc.repo.QueryCourseDays(ctx, c.ID)
	if err != nil {
		return Course{}, errors.Wrap(err, "querying course days")
	}
	if days == nil {
		days = []Day{}
	}
	c.Days = days
	return c, nil
}

// Update applies an already validated UpdateCourse. When uc.Days is set, the day set is replaced wholesale.
func (svc *Service) Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Category != nil {
		c.Category = *uc.Category
	}
	if uc.Language != "" {
		c.Language = uc.Language
	}
	if uc.Status != "" {
		c.Status = uc.Status
	}
	if uc.Visibility != "" {
		c.Visibility = uc.Visibility
	}
	c.UpdatedAt = core.NowFunc().UTC()

	days := c.Days
	updated, err := svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	updated.Days = days

	if uc.Days != nil {
		if err = svc.repo.DeleteCourseDays(ctx, c.ID); err != nil {
			return Course{}, errors.Wrap(err, "deleting course days")
		}
		updated.Days = []Day{}
		if len(uc.Days) > 0 {
			if updated.Days, err = svc.repo.CreateCourseDays(ctx, DaysFromForm(c.ID, uc.Days)); err != nil {
				return Course{}, errors.Wrap(err, "inserting course days")
			}
		}
	}
	return updated, nil
}

// ToggleArchive flips an active course to archived and any other course back to active.
func (svc *Service) ToggleArchive(ctx context.Context, c Course) (Course, error) {
	if c.Status == StatusActive {
		c.Status = StatusArchived
	} else {
		c.Status = StatusActive
	}
	c.UpdatedAt = core.NowFunc().UTC()

	days := c.Days
	updated, err := svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course status")
	}
	updated.Days = days
	return updated, nil
}

// Delete removes the course with its days and assignments, then takes one course off the
// total of each learner who was enrolled. Counter failures are logged, the course stays deleted.
func (svc *Service) Delete(ctx context.Context, id string) error {
	var learnerIDs []string
	if svc.enrollments != nil {
		ids, err := svc.enrollments.LearnerIDsByCourse(ctx, id)
		if err != nil {
			return errors.Wrap(err, "querying course enrollments")
		}
		learnerIDs = ids
	}

	if err := svc.repo.DeleteCourse(ctx, id); err != nil {
		return err
	}

	for _, learnerID := range learnerIDs {
		if err := svc.learners.IncrementTotalCourses(ctx, learnerID, -1); err != nil {
			cErr := &core.CounterUpdateError{Counter: "learner total_courses", ID: learnerID, Delta: -1, Err: err}
			svc.logger.Error(cErr.Error(), cErr)
		}
	}
	return nil
}

// QueryTemplates lists the template courses that can be assigned.
func (svc *Service) QueryTemplates(ctx context.Context) ([]TemplateCourse, error) {
	tcs, err := svc.tmplRepo.QueryTemplateCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying template courses")
	}
	return tcs, nil
}

// discard removes a partially created course. Failures are logged: nothing else can be done.
func (svc *Service) discard(ctx context.Context, id string) {
	if err := svc.repo.DeleteCourse(ctx, id); err != nil {
		svc.logger.Error(fmt.Sprintf("discarding course %s: %v", id, err), err)
	}
}
