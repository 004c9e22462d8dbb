package learner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/user"
)

var (
	ErrNotFound = errors.New("learner not found")

	OrderingFields  = []string{"name", "email", "status", "total_courses", "created_at", "updated_at"}
	defaultOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
)

type (
	// Enrollments lists the courses a learner is enrolled in.
	Enrollments interface {
		CourseIDsByLearner(ctx context.Context, learnerID string) ([]string, error)
	}

	// CourseCounter keeps Course.TotalEnrollments in step with the assignments.
	CourseCounter interface {
		IncrementEnrollments(ctx context.Context, id string, delta int) error
	}

	Deps struct {
		Repo        Repository
		Enrollments Enrollments
		Courses     CourseCounter
		Logger      core.Logger
	}

	Service struct {
		repo        Repository
		enrollments Enrollments
		courses     CourseCounter
		logger      core.Logger
	}
)

func NewService(deps Deps) *Service {
	return &Service{
		repo:        deps.Repo,
		enrollments: deps.Enrollments,
		courses:     deps.Courses,
		logger:      deps.Logger,
	}
}

func (svc *Service) Create(ctx context.Context, actor user.User, nl NewLearner) (Learner, error) {
	phone, err := core.NormalizePhone(nl.Phone)
	if err != nil {
		return Learner{}, core.NewFieldValidationError("phone", err.Error())
	}
	now := core.NowFunc().UTC()
	return svc.repo.CreateLearner(ctx, Learner{
		Name:      nl.Name,
		Email:     nl.Email,
		Phone:     phone,
		Status:    nl.Status,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Learner, error) {
	ordering = core.AllowedOrderings(ordering, OrderingFields...)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	return svc.repo.QueryLearners(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Learner, error) {
	return svc.repo.GetLearner(ctx, id)
}

// Update applies an already validated UpdateLearner on `l`.
func (svc *Service) Update(ctx context.Context, l Learner, ul UpdateLearner) (Learner, error) {
	if ul.Name != "" {
		l.Name = ul.Name
	}
	if ul.Email != nil {
		l.Email = *ul.Email
	}
	if ul.Phone != "" {
		phone, err := core.NormalizePhone(ul.Phone)
		if err != nil {
			return Learner{}, core.NewFieldValidationError("phone", err.Error())
		}
		l.Phone = phone
	}
	if ul.Status != "" {
		l.Status = ul.Status
	}
	l.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateLearner(ctx, l)
}

// ToggleStatus flips a learner between active and inactive.
func (svc *Service) ToggleStatus(ctx context.Context, l Learner) (Learner, error) {
	if l.Status == StatusActive {
		l.Status = StatusInactive
	} else {
		l.Status = StatusActive
	}
	l.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateLearner(ctx, l)
}

// Delete removes the learner with their assignments and messages, then takes one enrollment off
// each course they were assigned. Counter failures are logged, the learner stays deleted.
func (svc *Service) Delete(ctx context.Context, id string) error {
	var courseIDs []string
	if svc.enrollments != nil {
		ids, err := svc.enrollments.CourseIDsByLearner(ctx, id)
		if err != nil {
			return errors.Wrap(err, "querying learner enrollments")
		}
		courseIDs = ids
	}

	if err := svc.repo.DeleteLearner(ctx, id); err != nil {
		return err
	}

	for _, courseID := range courseIDs {
		if err := svc.courses.IncrementEnrollments(ctx, courseID, -1); err != nil {
			cErr := &core.CounterUpdateError{Counter: "course total_enrollments", ID: courseID, Delta: -1, Err: err}
			svc.logger.Error(cErr.Error(), cErr)
		}
	}
	return nil
}
