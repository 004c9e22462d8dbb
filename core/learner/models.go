package learner

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/microlearn/core"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Learner struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Status       Status    `json:"status"`
	TotalCourses int       `json:"total_courses"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewLearner contains information needed to create a new Learner.
type NewLearner struct {
	Name   string `json:"name" validate:"required,notblank,max=200"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone" validate:"required,phone"`
	Status Status `json:"status" validate:"omitempty,learnerstatus"`
}

func (nl *NewLearner) Validate(validate *validator.Validate) error {
	nl.Name = core.CleanString(nl.Name)
	nl.Email = core.CleanString(nl.Email, true /* lower */)
	nl.Phone = core.CleanString(nl.Phone)
	if nl.Status == "" {
		nl.Status = StatusActive
	}
	return validate.Struct(nl)
}

// UpdateLearner defines what information may be provided to modify an existing Learner.
type UpdateLearner struct {
	Name   string  `json:"name" validate:"max=200"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Phone  string  `json:"phone" validate:"omitempty,phone"`
	Status Status  `json:"status" validate:"omitempty,learnerstatus"`
}

func (ul *UpdateLearner) Validate(validate *validator.Validate) error {
	ul.Name = core.CleanString(ul.Name)
	ul.Phone = core.CleanString(ul.Phone)
	if ul.Email != nil {
		email := core.CleanString(*ul.Email, true /* lower */)
		ul.Email = &email
	}
	return validate.Struct(ul)
}

type QueryFilter struct {
	Search string   `query:"search"`
	Status []Status `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

type Repository interface {
	CreateLearner(ctx context.Context, l Learner) (Learner, error)
	// QueryLearners applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on one of Learner.Name, Learner.Email or Learner.Phone.
	QueryLearners(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Learner, error)
	GetLearner(ctx context.Context, id string) (Learner, error)
	UpdateLearner(ctx context.Context, l Learner) (Learner, error)
	DeleteLearner(ctx context.Context, id string) error
	// IncrementTotalCourses atomically adds delta to Learner.TotalCourses.
	IncrementTotalCourses(ctx context.Context, id string, delta int) error
}
