package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/assignment"
)

// activationTimeout bounds one run of the course activation job.
const activationTimeout = 5 * time.Minute

type courseActivator interface {
	ActivateDue(ctx context.Context, now time.Time) (int, error)
}

var _ courseActivator = (*assignment.Service)(nil) // interface compliance check

// newScheduler returns the cron running the background jobs. Runs of a job never overlap.
func newScheduler(conf *core.Config, activator courseActivator, logger core.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(conf.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(conf.Scheduler.ActivateSpec, activateCourses(activator, logger)); err != nil {
		return nil, errors.Wrapf(err, "scheduling course activation %q", conf.Scheduler.ActivateSpec)
	}
	return c, nil
}

// activateCourses starts the assignments whose start date has come.
func activateCourses(activator courseActivator, logger core.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), activationTimeout)
		defer cancel()

		n, err := activator.ActivateDue(ctx, core.NowFunc())
		if err != nil {
			logger.Error(fmt.Sprintf("activating courses: %v", err), err)
		}
		if n > 0 {
			logger.Info(fmt.Sprintf("%d course(s) started", n))
		}
	}
}
