package notification

import (
	"fmt"

	"github.com/trezcool/microlearn/core"
)

const (
	assignedHeader  = "Course Assigned!"
	assignedBodyFmt = "Hi %s, %s course is assigned to you. Press Let's MicroLearn to start learning."
	assignedButton  = "Let's MicroLearn"
	startingTextFmt = "Hi %s, your %s course starts today! Your daily lessons will be sent in this chat."

	assignedEmailTemplate = "course_assigned"
	assignedEmailSubject  = "Course assigned: %s"
)

// AssignmentMessage composes the WhatsApp message sent when a course is assigned.
func AssignmentMessage(learnerName, courseName, phone string) core.InteractiveMessage {
	return core.InteractiveMessage{
		Phone:  phone,
		Header: assignedHeader,
		Body:   fmt.Sprintf(assignedBodyFmt, learnerName, courseName),
		Button: assignedButton,
	}
}

// CourseStartText composes the WhatsApp text sent when an assigned course starts.
func CourseStartText(learnerName, courseName string) string {
	return fmt.Sprintf(startingTextFmt, learnerName, courseName)
}

type assignedEmailData struct {
	LearnerName string
	CourseName  string
	StartDate   string
}
