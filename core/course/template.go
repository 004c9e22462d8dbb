package course

import (
	"fmt"
	"strings"
)

// TemplatePrefix marks a course ID that refers to a template course of the catalogue
// rather than to a persisted Course.
const TemplatePrefix = "alfred-"

const (
	templateCategory     = "Alfred Course"
	templateDescFmt      = "%s - Generated from Alfred course"
	templateDayTitleFmt  = "Day %d"
	templateEmptyDayInfo = "No content available"
)

func IsTemplateID(id string) bool {
	return strings.HasPrefix(id, TemplatePrefix)
}

// TemplateID returns the template course ID for a catalogue name: "Money Basics" -> "alfred-Money-Basics".
func TemplateID(name string) string {
	return TemplatePrefix + strings.ReplaceAll(name, " ", "-")
}

// TemplateName derives the catalogue name from a template course ID: "alfred-Money-Basics" -> "Money Basics".
func TemplateName(id string) string {
	return strings.ReplaceAll(strings.TrimPrefix(id, TemplatePrefix), "-", " ")
}

// FromTemplate builds the Course generated from the named template course.
func FromTemplate(name, createdBy string) Course {
	return Course{
		Name:        name,
		Description: fmt.Sprintf(templateDescFmt, name),
		Category:    templateCategory,
		Language:    DefaultLanguage,
		Status:      StatusActive,
		Visibility:  VisibilityPublic,
		CreatedBy:   createdBy,
	}
}

// DaysFromTemplate maps template rows to the days of `courseID`, keeping their order and day numbers.
func DaysFromTemplate(courseID string, tds []TemplateDay) []Day {
	days := make([]Day, 0, len(tds))
	for _, td := range tds {
		info := td.Module1Text
		if info == "" {
			info = templateEmptyDayInfo
		}
		days = append(days, Day{
			CourseID:  courseID,
			DayNumber: td.Day,
			Title:     fmt.Sprintf(templateDayTitleFmt, td.Day),
			Info:      info,
			Module1:   td.Module1Text,
			Module2:   td.Module2Text,
			Module3:   td.Module3Text,
		})
	}
	return days
}
