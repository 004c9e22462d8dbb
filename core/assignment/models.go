package assignment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/course"
)

// StartDateLayout is the layout of AssignRequest.StartDate.
const StartDateLayout = "2006-01-02"

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// transitions lists the statuses each status may move to.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  nil,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// Completion is the completion percentage an assignment starts with in status `s`.
func (s Status) Completion() int {
	if s == StatusCompleted {
		return 100
	}
	return 0
}

// Assignment is the enrollment of a learner in a course.
// The same (learner, course) pair may be assigned more than once.
type Assignment struct {
	ID                   string         `json:"id"`
	LearnerID            string         `json:"learner_id"`
	CourseID             string         `json:"course_id"`
	StartDate            time.Time      `json:"start_date"` // UTC
	Status               Status         `json:"status"`
	CompletionPercentage int            `json:"completion_percentage"`
	CreatedAt            time.Time      `json:"created_at"` // UTC
	UpdatedAt            time.Time      `json:"updated_at"` // UTC
	Course               *course.Course `json:"course,omitempty"`
}

// AssignRequest is the course assignment form.
// CourseID is either a persisted course ID or a template course ID (see course.IsTemplateID).
type AssignRequest struct {
	CourseID   string `json:"course_id" validate:"required,notblank"`
	CourseName string `json:"course_name" validate:"max=200"` // preselected template course name
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	Status     Status `json:"status" validate:"omitempty,assignmentstatus"`
}

// Validate checks the form and returns the start date as midnight in `loc`.
// The start date cannot be before today.
func (ar *AssignRequest) Validate(validate *validator.Validate, loc *time.Location) (time.Time, error) {
	ar.CourseID = core.CleanString(ar.CourseID)
	ar.CourseName = core.CleanString(ar.CourseName)
	ar.StartDate = core.CleanString(ar.StartDate)
	if ar.Status == "" {
		ar.Status = StatusScheduled
	}
	if err := validate.Struct(ar); err != nil {
		return time.Time{}, err
	}

	startAt, err := time.ParseInLocation(StartDateLayout, ar.StartDate, loc)
	if err != nil {
		return time.Time{}, core.NewFieldValidationError("start_date", "invalid date")
	}
	if startAt.Before(core.StartOfDay(core.NowFunc(), loc)) {
		return time.Time{}, core.NewFieldValidationError("start_date", "start date cannot be in the past")
	}
	return startAt, nil
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,assignmentstatus"`
}

func (ur *UpdateStatusRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}

type QueryFilter struct {
	LearnerID string
	CourseID  string
	Status    []Status
	// StartsBy selects the assignments starting at or before this time.
	StartsBy time.Time
}

type Repository interface {
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	// QueryAssignments applies AND operation on available QueryFilter fields, ordered by start date.
	QueryAssignments(ctx context.Context, filter *QueryFilter) ([]Assignment, error)
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	// LearnerIDsByCourse returns the learner of every assignment of the course, one entry per assignment.
	LearnerIDsByCourse(ctx context.Context, courseID string) ([]string, error)
	// CourseIDsByLearner returns the course of every assignment of the learner, one entry per assignment.
	CourseIDsByLearner(ctx context.Context, learnerID string) ([]string, error)
}

// Notifier informs learners about their assignments.
type Notifier interface {
	NotifyAssignment(ctx context.Context, learnerID, courseID string, startAt time.Time) error
	NotifyCourseStart(ctx context.Context, learnerID, courseID string) error
}
