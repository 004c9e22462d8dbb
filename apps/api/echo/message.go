package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/analytics"
	"github.com/trezcool/microlearn/core/notification"
)

const (
	defaultAnalyticsDays = 7
	maxAnalyticsDays     = 90
)

type messageApi struct {
	svc          *notification.Service
	analyticsSvc *analytics.Service
}

func registerMessageAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notification.Service, analyticsSvc *analytics.Service) {
	api := messageApi{
		svc:          svc,
		analyticsSvc: analyticsSvc,
	}

	g.GET("/messages", api.query, jwt, adminMiddleware())
	g.GET("/analytics", api.summary, jwt, adminMiddleware())
}

// Handlers

func (api *messageApi) query(ctx echo.Context) error {
	filter := &notification.QueryFilter{
		LearnerID: ctx.QueryParam("learner_id"),
		CourseID:  ctx.QueryParam("course_id"),
		SentFrom:  queryDate(ctx, "sent_from"),
	}
	for _, t := range ctx.QueryParams()["type"] {
		filter.Type = append(filter.Type, notification.Type(t))
	}
	if to := queryDate(ctx, "sent_to"); !to.IsZero() {
		filter.SentTo = to.AddDate(0, 0, 1).Add(-1) // whole day
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	msgs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	return ctx.JSON(http.StatusOK, msgs)
}

// summary returns the dashboard figures. `?days=` sets the span of the per-day message counts.
func (api *messageApi) summary(ctx echo.Context) error {
	days := defaultAnalyticsDays
	if val := ctx.QueryParam("days"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 || n > maxAnalyticsDays {
			return core.NewFieldValidationError("days", "must be a number between 1 and "+strconv.Itoa(maxAnalyticsDays))
		}
		days = n
	}

	sum, err := api.analyticsSvc.Summarize(ctx.Request().Context(), core.NowFunc(), days)
	if err != nil {
		return errors.Wrap(err, "summarizing analytics")
	}
	return ctx.JSON(http.StatusOK, sum)
}
