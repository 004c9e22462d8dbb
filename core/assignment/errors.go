package assignment

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
)

var (
	ErrNotFound          = errors.New("assignment not found")
	ErrNoActor           = errors.New("an authenticated user is required to assign courses")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// CreationError reports a failure to materialize a course from a template.
// Nothing is left behind: the partially created course is removed.
type CreationError struct {
	Template string
	Err      error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("creating course from template %q: %v", e.Template, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

func (e *CreationError) LogFields() map[string]interface{} {
	return map[string]interface{}{"template": e.Template}
}

// AssignmentError reports a failure to insert the assignment itself.
type AssignmentError struct {
	LearnerID string
	CourseID  string
	Err       error
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("assigning course %s to learner %s: %v", e.CourseID, e.LearnerID, e.Err)
}

func (e *AssignmentError) Unwrap() error { return e.Err }

func (e *AssignmentError) LogFields() map[string]interface{} {
	return map[string]interface{}{"learner_id": e.LearnerID, "course_id": e.CourseID}
}

// CounterUpdateError reports a failed counter increment. It is logged, never returned to callers.
type CounterUpdateError = core.CounterUpdateError

// NotificationError reports a failed notification. It is logged, never returned to callers.
type NotificationError struct {
	LearnerID string
	CourseID  string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notifying learner %s of course %s: %v", e.LearnerID, e.CourseID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

func (e *NotificationError) LogFields() map[string]interface{} {
	return map[string]interface{}{"learner_id": e.LearnerID, "course_id": e.CourseID}
}
