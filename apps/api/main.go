package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/trezcool/microlearn/apps/api/echo"
	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/analytics"
	"github.com/trezcool/microlearn/core/assignment"
	"github.com/trezcool/microlearn/core/course"
	"github.com/trezcool/microlearn/core/learner"
	"github.com/trezcool/microlearn/core/notification"
	"github.com/trezcool/microlearn/core/user"
	emailsvc "github.com/trezcool/microlearn/services/email"
	logsvc "github.com/trezcool/microlearn/services/logger"
	messagingsvc "github.com/trezcool/microlearn/services/messaging"
	"github.com/trezcool/microlearn/storage/database"
	inmemdb "github.com/trezcool/microlearn/storage/database/inmem"
	sqlxrepos "github.com/trezcool/microlearn/storage/database/sqlx"
)

// engineMemory keeps all the data in memory. Nothing survives a restart.
const engineMemory = "memory"

type repositories struct {
	users       user.Repository
	courses     course.Repository
	templates   course.TemplateRepository
	learners    learner.Repository
	assignments assignment.Repository
	messages    notification.Repository
	closer      io.Closer
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.closer.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var messenger core.Messenger
	if conf.Messaging.Endpoint == "" {
		messenger = messagingsvc.NewConsoleService(logger)
	} else {
		messenger = messagingsvc.NewWhatsappService(conf)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	learner.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

	learnerSvc := learner.NewService(learner.Deps{
		Repo:        repos.learners,
		Enrollments: repos.assignments,
		Courses:     repos.courses,
		Logger:      logger,
	})
	notificationSvc := notification.NewService(notification.Deps{
		Repo:         repos.messages,
		Learners:     repos.learners,
		Courses:      repos.courses,
		Messenger:    messenger,
		Mailer:       mailSvc,
		EmailEnabled: conf.Notifications.EmailEnabled,
		Logger:       logger,
	})
	assignmentSvc := assignment.NewService(assignment.Deps{
		Repo:      repos.assignments,
		Courses:   repos.courses,
		Templates: repos.templates,
		Learners:  repos.learners,
		Notifier:  notificationSvc,
		Validate:  validate,
		Logger:    logger,
		Location:  conf.Location(),
	})

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db").Set(conf.Database.Engine)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Scheduler

	if conf.Scheduler.Enabled {
		sched, err := newScheduler(conf, assignmentSvc, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up scheduler: %v", err), err)
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:   conf,
			Logger: logger,
			UserSvc: user.NewService(user.Deps{
				Repo:   repos.users,
				Mailer: mailSvc,
				Tokens: user.NewPasswordResetTokens(conf.SecretKey, conf.PasswordResetTimeoutDelta),
				Logger: logger,
			}),
			CourseSvc: course.NewService(course.Deps{
				Repo:        repos.courses,
				Templates:   repos.templates,
				Enrollments: repos.assignments,
				Learners:    repos.learners,
				Logger:      logger,
			}),
			LearnerSvc:      learnerSvc,
			AssignmentSvc:   assignmentSvc,
			NotificationSvc: notificationSvc,
			AnalyticsSvc: analytics.NewService(analytics.Deps{
				Learners:    repos.learners,
				Courses:     repos.courses,
				Assignments: repos.assignments,
				Messages:    repos.messages,
			}),
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpRepositories opens the database selected by conf.Database.Engine.
// The PostgreSQL database is created and migrated if needed.
func setUpRepositories(conf *core.Config) (*repositories, error) {
	if conf.Database.Engine == engineMemory {
		db := inmemdb.Open()
		return &repositories{
			users:       inmemdb.NewUserRepository(db),
			courses:     inmemdb.NewCourseRepository(db),
			templates:   inmemdb.NewTemplateRepository(db),
			learners:    inmemdb.NewLearnerRepository(db),
			assignments: inmemdb.NewAssignmentRepository(db),
			messages:    inmemdb.NewMessageRepository(db),
			closer:      io.NopCloser(nil),
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &repositories{
		users:       sqlxrepos.NewUserRepository(db),
		courses:     sqlxrepos.NewCourseRepository(db),
		templates:   sqlxrepos.NewTemplateRepository(db),
		learners:    sqlxrepos.NewLearnerRepository(db),
		assignments: sqlxrepos.NewAssignmentRepository(db),
		messages:    sqlxrepos.NewMessageRepository(db),
		closer:      db,
	}, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
