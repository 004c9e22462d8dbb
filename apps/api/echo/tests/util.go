package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	echoapi "github.com/trezcool/microlearn/apps/api/echo"
	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/analytics"
	"github.com/trezcool/microlearn/core/assignment"
	"github.com/trezcool/microlearn/core/course"
	"github.com/trezcool/microlearn/core/learner"
	"github.com/trezcool/microlearn/core/notification"
	"github.com/trezcool/microlearn/core/user"
	emailsvc "github.com/trezcool/microlearn/services/email"
	messagingsvc "github.com/trezcool/microlearn/services/messaging"
	inmemdb "github.com/trezcool/microlearn/storage/database/inmem"
	"github.com/trezcool/microlearn/testutil"
)

var (
	conf *core.Config
	app  *echoapi.Server

	usrRepo     user.Repository
	courseRepo  course.Repository
	learnerRepo learner.Repository
	assignRepo  assignment.Repository
	msgRepo     notification.Repository
	tmplRepo    interface {
		course.TemplateRepository
		AddTemplateDays(tds ...course.TemplateDay) []course.TemplateDay
	}
	messenger interface {
		core.Messenger
		FailWith(err error)
		Sent() []messagingsvc.SentMessage
	}
	logger *testutil.Logger

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func resetTokens() user.PasswordResetTokens {
	return user.NewPasswordResetTokens(conf.SecretKey, conf.PasswordResetTimeoutDelta)
}

// setup starts a server over a fresh in-memory DB.
// `wrap` may replace the repositories before the services are built.
func setup(t *testing.T, wrap ...func()) {
	t.Helper()

	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	courseRepo = inmemdb.NewCourseRepository(db)
	learnerRepo = inmemdb.NewLearnerRepository(db)
	assignRepo = inmemdb.NewAssignmentRepository(db)
	msgRepo = inmemdb.NewMessageRepository(db)
	tmplRepo = inmemdb.NewTemplateRepository(db)
	logger = new(testutil.Logger)
	messenger = messagingsvc.NewConsoleService(logger)
	emailsvc.ResetSentMessages()
	for _, w := range wrap {
		w()
	}

	validate, translator := testutil.NewValidator()
	mailer := emailsvc.NewConsoleServiceMock(conf)
	learnerSvc := learner.NewService(learner.Deps{
		Repo:        learnerRepo,
		Enrollments: assignRepo,
		Courses:     courseRepo,
		Logger:      logger,
	})
	notificationSvc := notification.NewService(notification.Deps{
		Repo:         msgRepo,
		Learners:     learnerRepo,
		Courses:      courseRepo,
		Messenger:    messenger,
		Mailer:       mailer,
		EmailEnabled: true,
		Logger:       logger,
	})

	app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:   conf,
		Logger: logger,
		UserSvc: user.NewService(user.Deps{
			Repo:   usrRepo,
			Mailer: mailer,
			Tokens: resetTokens(),
			Logger: logger,
		}),
		CourseSvc: course.NewService(course.Deps{
			Repo:        courseRepo,
			Templates:   tmplRepo,
			Enrollments: assignRepo,
			Learners:    learnerRepo,
			Logger:      logger,
		}),
		LearnerSvc: learnerSvc,
		AssignmentSvc: assignment.NewService(assignment.Deps{
			Repo:      assignRepo,
			Courses:   courseRepo,
			Templates: tmplRepo,
			Learners:  learnerRepo,
			Notifier:  notificationSvc,
			Validate:  validate,
			Logger:    logger,
			Location:  conf.Location(),
		}),
		NotificationSvc: notificationSvc,
		AnalyticsSvc: analytics.NewService(analytics.Deps{
			Learners:    learnerRepo,
			Courses:     courseRepo,
			Assignments: assignRepo,
			Messages:    msgRepo,
		}),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = app.Close() })
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func serve(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := echoapi.GetUserClaims(conf, usr)
	token, err := echoapi.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func adminToken(t *testing.T) (user.User, string) {
	admin := testutil.CreateAdmin(t, usrRepo, "admin")
	return admin, getToken(t, admin)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func getCourse(t *testing.T, id string) course.Course {
	t.Helper()
	c, err := courseRepo.GetCourse(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCourse() failed: %v", err)
	}
	return c
}

func getLearner(t *testing.T, id string) learner.Learner {
	t.Helper()
	l, err := learnerRepo.GetLearner(context.Background(), id)
	if err != nil {
		t.Fatalf("GetLearner() failed: %v", err)
	}
	return l
}
