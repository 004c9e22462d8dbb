// Package testutil holds the helpers shared by the tests: validators, a recording logger and fixtures.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/assignment"
	"github.com/trezcool/microlearn/core/course"
	"github.com/trezcool/microlearn/core/learner"
	"github.com/trezcool/microlearn/core/user"
)

// NewValidator returns a validator with every app validator and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	learner.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)
	return validate, translator
}

// HasFieldError tells if `err` rejects `field`, either as a *core.ValidationError or as validator errors.
func HasFieldError(err error, field string) bool {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		for _, fe := range vErr.Fields {
			if fe.Field == field {
				return true
			}
		}
		return false
	}
	var fErrs validator.ValidationErrors
	if errors.As(err, &fErrs) {
		for _, fe := range fErrs {
			if fe.Field() == field {
				return true
			}
		}
	}
	return false
}

// LogEntry is a message logged through a Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records the logged entries.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil) // interface compliance check

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Entries returns the entries logged at `level`, all of them when level is empty.
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

// HasArg tells if any entry at `level` carries an argument matching `match`.
func (l *Logger) HasArg(level string, match func(arg interface{}) bool) bool {
	for _, e := range l.Entries(level) {
		for _, arg := range e.Args {
			if match(arg) {
				return true
			}
		}
	}
	return false
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateAdmin creates an active super admin.
func CreateAdmin(t *testing.T, repo user.Repository, uname string) user.User {
	t.Helper()
	return CreateUser(t, repo, "Admin "+uname, uname, uname+"@test.cd", "", user.AllRoles, true)
}

func CreateLearner(t *testing.T, repo learner.Repository, name, phone string, totalCourses int, createdAt ...time.Time) learner.Learner {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	l, err := repo.CreateLearner(context.Background(), learner.Learner{
		Name:         name,
		Email:        "",
		Phone:        phone,
		Status:       learner.StatusActive,
		TotalCourses: totalCourses,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateLearner() failed: %v", err)
	}
	return l
}

// CreateCourse creates a course with `nDays` days.
func CreateCourse(
	t *testing.T,
	repo course.Repository,
	name string,
	status course.Status,
	totalEnrollments, nDays int,
	createdAt ...time.Time,
) course.Course {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	ctx := context.Background()
	c, err := repo.CreateCourse(ctx, course.Course{
		Name:             name,
		Description:      name + " description",
		Category:         "Testing",
		Language:         course.DefaultLanguage,
		Status:           status,
		Visibility:       course.VisibilityPublic,
		TotalEnrollments: totalEnrollments,
		CreatedAt:        tstamp,
		UpdatedAt:        tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}

	c.Days = []course.Day{}
	if nDays > 0 {
		nds := make([]course.NewDay, 0, nDays)
		for i := 1; i <= nDays; i++ {
			nds = append(nds, course.NewDay{Title: fmt.Sprintf("Day %d", i), Info: fmt.Sprintf("Lesson %d", i)})
		}
		if c.Days, err = repo.CreateCourseDays(ctx, course.DaysFromForm(c.ID, nds)); err != nil {
			t.Fatalf("CreateCourse() failed: %v", err)
		}
	}
	return c
}

// CreateAssignment stores a scheduled assignment without touching the counters.
func CreateAssignment(t *testing.T, repo assignment.Repository, learnerID, courseID string) assignment.Assignment {
	t.Helper()
	now := time.Now().UTC()
	a, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		LearnerID: learnerID,
		CourseID:  courseID,
		StartDate: now,
		Status:    assignment.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}
