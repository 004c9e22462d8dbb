package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/microlearn/core"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDraft    Status = "draft"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusDraft:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

const DefaultLanguage = "English"

type Course struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	Language         string     `json:"language"`
	Status           Status     `json:"status"`
	Visibility       Visibility `json:"visibility"`
	TotalEnrollments int        `json:"total_enrollments"`
	CreatedBy        string     `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"` // UTC
	UpdatedAt        time.Time  `json:"updated_at"` // UTC
	Days             []Day      `json:"days"`
}

// Day is one lesson of a Course. DayNumber is unique within a Course.
type Day struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	DayNumber int       `json:"day_number"`
	Title     string    `json:"title"`
	Info      string    `json:"info"`
	MediaLink string    `json:"media_link,omitempty"`
	Module1   string    `json:"module_1,omitempty"`
	Module2   string    `json:"module_2,omitempty"`
	Module3   string    `json:"module_3,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewDay is a Day as entered in the course form. Days are numbered by their position.
type NewDay struct {
	Title     string `json:"title" validate:"required,notblank"`
	Info      string `json:"info" validate:"required,notblank"`
	MediaLink string `json:"media_link" validate:"omitempty,url"`
	Module1   string `json:"module_1"`
	Module2   string `json:"module_2"`
	Module3   string `json:"module_3"`
}

func (nd *NewDay) clean() {
	nd.Title = core.CleanString(nd.Title)
	nd.Info = core.CleanString(nd.Info)
	nd.MediaLink = core.CleanString(nd.MediaLink)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name        string     `json:"name" validate:"required,notblank,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Category    string     `json:"category" validate:"max=100"`
	Language    string     `json:"language" validate:"max=50"`
	Status      Status     `json:"status" validate:"omitempty,coursestatus"`
	Visibility  Visibility `json:"visibility" validate:"omitempty,visibility"`
	Days        []NewDay   `json:"days" validate:"dive"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)
	nc.Language = core.CleanString(nc.Language)
	if nc.Language == "" {
		nc.Language = DefaultLanguage
	}
	if nc.Status == "" {
		nc.Status = StatusActive
	}
	if nc.Visibility == "" {
		nc.Visibility = VisibilityPublic
	}
	for i := range nc.Days {
		nc.Days[i].clean()
	}
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// A non-nil Days replaces all the days of the Course.
type UpdateCourse struct {
	Name        string     `json:"name" validate:"max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Category    *string    `json:"category" validate:"omitempty,max=100"`
	Language    string     `json:"language" validate:"max=50"`
	Status      Status     `json:"status" validate:"omitempty,coursestatus"`
	Visibility  Visibility `json:"visibility" validate:"omitempty,visibility"`
	Days        []NewDay   `json:"days" validate:"omitempty,dive"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	uc.Language = core.CleanString(uc.Language)
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		uc.Description = &desc
	}
	if uc.Category != nil {
		cat := core.CleanString(*uc.Category)
		uc.Category = &cat
	}
	for i := range uc.Days {
		uc.Days[i].clean()
	}
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search string   `query:"search"`
	Status []Status `query:"status"`
	IDs    []string `query:"id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// TemplateDay is a row of the template catalogue from which courses are generated.
type TemplateDay struct {
	ID          int64     `json:"id"`
	CourseName  string    `json:"course_name"`
	Day         int       `json:"day"`
	Module1Text string    `json:"module_1_text"`
	Module2Text string    `json:"module_2_text"`
	Module3Text string    `json:"module_3_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// TemplateCourse summarizes a template course of the catalogue.
type TemplateCourse struct {
	ID   string `json:"id"` // TemplatePrefix + slug
	Name string `json:"name"`
	Days int    `json:"days"`
}

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// CreateCourseDays inserts all days in a single batch.
		CreateCourseDays(ctx context.Context, days []Day) ([]Day, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Name, Course.Description or Course.Category.
		// Courses are returned without their days.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		// QueryCourseDays returns the days of the given courses ordered by day number.
		QueryCourseDays(ctx context.Context, courseIDs ...string) ([]Day, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourseDays(ctx context.Context, courseID string) error
		DeleteCourse(ctx context.Context, id string) error
		// IncrementEnrollments atomically adds delta to Course.TotalEnrollments.
		IncrementEnrollments(ctx context.Context, id string, delta int) error
	}

	TemplateRepository interface {
		// QueryTemplateDays returns the rows of the named template ordered by day.
		QueryTemplateDays(ctx context.Context, courseName string) ([]TemplateDay, error)
		QueryTemplateCourses(ctx context.Context) ([]TemplateCourse, error)
	}
)
