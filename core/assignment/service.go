package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/course"
	"github.com/trezcool/microlearn/core/learner"
	"github.com/trezcool/microlearn/core/user"
)

type (
	Deps struct {
		Repo      Repository
		Courses   course.Repository
		Templates course.TemplateRepository
		Learners  learner.Repository
		Notifier  Notifier
		Validate  *validator.Validate
		Logger    core.Logger
		Location  *time.Location // start dates are midnights in this location; defaults to UTC
	}

	Service struct {
		repo      Repository
		courses   course.Repository
		templates course.TemplateRepository
		learners  learner.Repository
		notifier  Notifier
		validate  *validator.Validate
		logger    core.Logger
		loc       *time.Location
	}
)

func NewService(deps Deps) *Service {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      deps.Repo,
		courses:   deps.Courses,
		templates: deps.Templates,
		learners:  deps.Learners,
		notifier:  deps.Notifier,
		validate:  deps.Validate,
		logger:    deps.Logger,
		loc:       loc,
	}
}

// Assign assigns a course to a learner on behalf of `actor`.
//
// The request is fully validated before anything is written. A template course is first materialized
// into a new Course with its days. Once the assignment is stored, the learner and course counters are
// incremented and the learner is notified: failures of these last steps are logged and do not fail the
// assignment. When the course or the assignment cannot be stored, the course materialized for this
// request is removed before returning a *CreationError or *AssignmentError.
func (svc *Service) Assign(ctx context.Context, actor user.User, learnerID string, req AssignRequest) (Assignment, error) {
	if actor.ID == "" {
		return Assignment{}, ErrNoActor
	}
	startAt, err := req.Validate(svc.validate, svc.loc)
	if err != nil {
		return Assignment{}, err
	}
	if _, err = svc.learners.GetLearner(ctx, learnerID); err != nil {
		return Assignment{}, err
	}

	var (
		crs          course.Course
		materialized bool
	)
	if course.IsTemplateID(req.CourseID) {
		if crs, err = svc.materialize(ctx, actor, req); err != nil {
			return Assignment{}, err
		}
		materialized = true
	} else {
		if crs, err = svc.courses.GetCourse(ctx, req.CourseID); err != nil {
			svc.logger.Warn(fmt.Sprintf("resolving course %s: %v", req.CourseID, err), err, actor)
			crs = course.Course{ID: req.CourseID}
		}
	}

	now := core.NowFunc().UTC()
	a, err := svc.repo.CreateAssignment(ctx, Assignment{
		LearnerID:            learnerID,
		CourseID:             crs.ID,
		StartDate:            startAt.UTC(),
		Status:               req.Status,
		CompletionPercentage: req.Status.Completion(),
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		if materialized {
			svc.discardCourse(ctx, crs.ID)
		}
		return Assignment{}, &AssignmentError{LearnerID: learnerID, CourseID: crs.ID, Err: err}
	}

	if err = svc.learners.IncrementTotalCourses(ctx, learnerID, 1); err != nil {
		cErr := &CounterUpdateError{Counter: "learner total_courses", ID: learnerID, Delta: 1, Err: err}
		svc.logger.Error(cErr.Error(), cErr, actor)
	}
	if err = svc.courses.IncrementEnrollments(ctx, crs.ID, 1); err != nil {
		cErr := &CounterUpdateError{Counter: "course total_enrollments", ID: crs.ID, Delta: 1, Err: err}
		svc.logger.Error(cErr.Error(), cErr, actor)
	}
	if err = svc.notifier.NotifyAssignment(ctx, learnerID, crs.ID, startAt); err != nil {
		nErr := &NotificationError{LearnerID: learnerID, CourseID: crs.ID, Err: err}
		svc.logger.Warn(nErr.Error(), nErr, actor)
	}

	if crs.Name != "" {
		a.Course = &crs
	}
	return a, nil
}

// materialize creates the Course and days generated from the template course targeted by `req`.
func (svc *Service) materialize(ctx context.Context, actor user.User, req AssignRequest) (course.Course, error) {
	name := req.CourseName
	if name == "" {
		name = course.TemplateName(req.CourseID)
	}

	now := core.NowFunc().UTC()
	c := course.FromTemplate(name, actor.ID)
	c.CreatedAt, c.UpdatedAt = now, now

	c, err := svc.courses.CreateCourse(ctx, c)
	if err != nil {
		return course.Course{}, &CreationError{Template: name, Err: errors.Wrap(err, "inserting course")}
	}

	tds, err := svc.templates.QueryTemplateDays(ctx, name)
	if err != nil {
		svc.discardCourse(ctx, c.ID)
		return course.Course{}, &CreationError{Template: name, Err: errors.Wrap(err, "querying template days")}
	}

	c.Days = []course.Day{}
	if len(tds) > 0 {
		days, err := svc.courses.CreateCourseDays(ctx, course.DaysFromTemplate(c.ID, tds))
		if err != nil {
			svc.discardCourse(ctx, c.ID)
			return course.Course{}, &CreationError{Template: name, Err: errors.Wrap(err, "inserting course days")}
		}
		c.Days = days
	}
	return c, nil
}

// discardCourse compensates a course materialized by a failed assignment. Its days go with it.
func (svc *Service) discardCourse(ctx context.Context, id string) {
	if err := svc.courses.DeleteCourse(ctx, id); err != nil {
		svc.logger.Error(fmt.Sprintf("discarding course %s: %v", id, err), err)
	}
}

// QueryByLearner returns the assignments of a learner with their course.
func (svc *Service) QueryByLearner(ctx context.Context, learnerID string) ([]Assignment, error) {
	as, err := svc.repo.QueryAssignments(ctx, &QueryFilter{LearnerID: learnerID})
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	if len(as) == 0 {
		return as, nil
	}

	ids := make([]string, 0, len(as))
	for _, a := range as {
		ids = append(ids, a.CourseID)
	}
	courses, err := svc.courses.QueryCourses(ctx, &course.QueryFilter{IDs: ids}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying assigned courses")
	}
	byID := make(map[string]course.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	for i := range as {
		if c, ok := byID[as[i].CourseID]; ok {
			as[i].Course = &c
		}
	}
	return as, nil
}

// AvailableCourses returns the active courses not yet assigned to the learner, by name.
func (svc *Service) AvailableCourses(ctx context.Context, learnerID string) ([]course.Course, error) {
	courses, err := svc.courses.QueryCourses(
		ctx,
		&course.QueryFilter{Status: []course.Status{course.StatusActive}},
		[]core.DBOrdering{{Field: "name", Ascending: true}},
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying active courses")
	}
	as, err := svc.repo.QueryAssignments(ctx, &QueryFilter{LearnerID: learnerID})
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}

	assigned := make(map[string]bool, len(as))
	for _, a := range as {
		assigned[a.CourseID] = true
	}
	available := make([]course.Course, 0, len(courses))
	for _, c := range courses {
		if !assigned[c.ID] {
			available = append(available, c)
		}
	}
	return available, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

// UpdateStatus moves an assignment to `next` if the transition is allowed. Completed assignments are 100% complete.
func (svc *Service) UpdateStatus(ctx context.Context, a Assignment, next Status) (Assignment, error) {
	if !a.Status.CanTransitionTo(next) {
		return Assignment{}, core.NewValidationError(
			ErrInvalidTransition,
			core.FieldError{Field: "status", Error: fmt.Sprintf("cannot change status from %s to %s", a.Status, next)},
		)
	}
	a.Status = next
	if next == StatusCompleted {
		a.CompletionPercentage = 100
	}
	a.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}

// ActivateDue starts the scheduled assignments whose start date has been reached at `now`
// and sends their learners a course start message. It returns the number of assignments started.
func (svc *Service) ActivateDue(ctx context.Context, now time.Time) (int, error) {
	due, err := svc.repo.QueryAssignments(ctx, &QueryFilter{
		Status:   []Status{StatusScheduled},
		StartsBy: now.UTC(),
	})
	if err != nil {
		return 0, errors.Wrap(err, "querying due assignments")
	}

	var started int
	for _, a := range due {
		if ctx.Err() != nil {
			return started, ctx.Err()
		}
		if _, err = svc.UpdateStatus(ctx, a, StatusInProgress); err != nil {
			svc.logger.Error(fmt.Sprintf("starting assignment %s: %v", a.ID, err), err)
			continue
		}
		started++
		if err = svc.notifier.NotifyCourseStart(ctx, a.LearnerID, a.CourseID); err != nil {
			nErr := &NotificationError{LearnerID: a.LearnerID, CourseID: a.CourseID, Err: err}
			svc.logger.Warn(nErr.Error(), nErr)
		}
	}
	return started, nil
}
