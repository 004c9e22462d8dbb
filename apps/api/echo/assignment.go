package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core/assignment"
	"github.com/trezcool/microlearn/core/learner"
)

type assignmentApi struct {
	auth       *authenticator
	svc        *assignment.Service
	learnerSvc *learner.Service
	validate   *validator.Validate
}

func registerAssignmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc *assignment.Service,
	learnerSvc *learner.Service,
	validate *validator.Validate,
) {
	api := assignmentApi{
		auth:       auth,
		svc:        svc,
		learnerSvc: learnerSvc,
		validate:   validate,
	}

	// no "/learners/:id" group here: its catch-all routes would replace the learner detail routes
	admin := adminMiddleware()
	g.GET("/learners/:id/courses", api.queryByLearner, jwt, admin)
	g.POST("/learners/:id/courses", api.assign, jwt, admin)
	g.GET("/learners/:id/available-courses", api.availableCourses, jwt, admin)
	g.PUT("/assignments/:id/status", api.updateStatus, jwt, admin)
}

// Handlers

func (api *assignmentApi) queryByLearner(ctx echo.Context) error {
	l, err := api.learnerSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding learner by ID")
	}
	as, err := api.svc.QueryByLearner(ctx.Request().Context(), l.ID)
	if err != nil {
		return errors.Wrap(err, "querying learner courses")
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *assignmentApi) availableCourses(ctx echo.Context) error {
	l, err := api.learnerSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding learner by ID")
	}
	courses, err := api.svc.AvailableCourses(ctx.Request().Context(), l.ID)
	if err != nil {
		return errors.Wrap(err, "querying available courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

// assign runs the course assignment workflow for the learner in the path.
func (api *assignmentApi) assign(ctx echo.Context) error {
	var data assignment.AssignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRequest")
	}

	actor, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err := api.svc.Assign(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		switch errors.Cause(err).(type) {
		case *assignment.CreationError, *assignment.AssignmentError:
			assignmentsTotal.WithLabelValues(outcomeFailed).Inc()
		default:
			assignmentsTotal.WithLabelValues(outcomeRejected).Inc()
		}
		return err
	}
	assignmentsTotal.WithLabelValues(outcomeAssigned).Inc()
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) updateStatus(ctx echo.Context) error {
	a, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}

	var data assignment.UpdateStatusRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatusRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if a, err = api.svc.UpdateStatus(ctx.Request().Context(), a, data.Status); err != nil {
		return errors.Wrap(err, "updating assignment status")
	}
	return ctx.JSON(http.StatusOK, a)
}
