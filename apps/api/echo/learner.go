package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core/learner"
)

type learnerApi struct {
	auth     *authenticator
	svc      *learner.Service
	validate *validator.Validate
}

func registerLearnerAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc *learner.Service, validate *validator.Validate) {
	api := learnerApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	lg := g.Group("/learners", jwt, adminMiddleware())
	lg.GET("", api.query)
	lg.POST("", api.create)

	dg := lg.Group("/:id", objectMiddleware(api.getObject))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/toggle-status", api.toggleStatus)
}

func (api *learnerApi) getObject(ctx echo.Context, id string) (interface{}, error) {
	l, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return nil, errors.Wrap(err, "finding learner by ID")
	}
	return l, nil
}

func ctxLearner(ctx echo.Context) (learner.Learner, error) {
	l, ok := ctx.Get(contextObjectKey).(learner.Learner)
	if !ok {
		return learner.Learner{}, errors.Wrap(errObjNotFoundInCtx, "retrieving learner from context")
	}
	return l, nil
}

// Handlers

func (api *learnerApi) query(ctx echo.Context) error {
	filter := new(learner.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []learner.Learner{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	learners, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying learners")
	}
	if learners == nil {
		learners = []learner.Learner{}
	}
	return ctx.JSON(http.StatusOK, learners)
}

func (api *learnerApi) create(ctx echo.Context) error {
	var data learner.NewLearner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLearner")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	l, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating learner")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *learnerApi) retrieve(ctx echo.Context) error {
	l, err := ctxLearner(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *learnerApi) update(ctx echo.Context) error {
	l, err := ctxLearner(ctx)
	if err != nil {
		return err
	}

	var data learner.UpdateLearner
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLearner")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if l, err = api.svc.Update(ctx.Request().Context(), l, data); err != nil {
		return errors.Wrap(err, "updating learner")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *learnerApi) toggleStatus(ctx echo.Context) error {
	l, err := ctxLearner(ctx)
	if err != nil {
		return err
	}
	if l, err = api.svc.ToggleStatus(ctx.Request().Context(), l); err != nil {
		return errors.Wrap(err, "toggling learner status")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *learnerApi) destroy(ctx echo.Context) error {
	l, err := ctxLearner(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), l.ID); err != nil {
		return errors.Wrap(err, "deleting learner")
	}
	return ctx.NoContent(http.StatusNoContent)
}
