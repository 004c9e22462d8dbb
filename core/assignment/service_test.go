package assignment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/assignment"
	"github.com/trezcool/microlearn/core/course"
	"github.com/trezcool/microlearn/core/learner"
	"github.com/trezcool/microlearn/core/user"
	inmemdb "github.com/trezcool/microlearn/storage/database/inmem"
	"github.com/trezcool/microlearn/testutil"
)

var (
	today   = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	errDown = errors.New("storage down")
)

type notifyCall struct {
	learnerID string
	courseID  string
}

// fakeNotifier counts the notification attempts and fails them on demand.
type fakeNotifier struct {
	assigned []notifyCall
	started  []notifyCall
	fail     error
}

func (n *fakeNotifier) NotifyAssignment(_ context.Context, learnerID, courseID string, _ time.Time) error {
	n.assigned = append(n.assigned, notifyCall{learnerID, courseID})
	return n.fail
}

func (n *fakeNotifier) NotifyCourseStart(_ context.Context, learnerID, courseID string) error {
	n.started = append(n.started, notifyCall{learnerID, courseID})
	return n.fail
}

type (
	// failingCourseRepo fails the configured operations of the wrapped repository.
	failingCourseRepo struct {
		course.Repository
		failCreate      bool
		failCreateDays  bool
		failIncrement   bool
		deletedCourses  []string
		createdCourseID string
	}

	failingAssignmentRepo struct {
		assignment.Repository
		failCreate bool
	}

	failingLearnerRepo struct {
		learner.Repository
		failIncrement bool
	}

	failingTemplateRepo struct {
		course.TemplateRepository
	}
)

func (r *failingCourseRepo) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if r.failCreate {
		return course.Course{}, errDown
	}
	c, err := r.Repository.CreateCourse(ctx, c)
	r.createdCourseID = c.ID
	return c, err
}

func (r *failingCourseRepo) CreateCourseDays(ctx context.Context, days []course.Day) ([]course.Day, error) {
	if r.failCreateDays {
		return nil, errDown
	}
	return r.Repository.CreateCourseDays(ctx, days)
}

func (r *failingCourseRepo) IncrementEnrollments(ctx context.Context, id string, delta int) error {
	if r.failIncrement {
		return errDown
	}
	return r.Repository.IncrementEnrollments(ctx, id, delta)
}

func (r *failingCourseRepo) DeleteCourse(ctx context.Context, id string) error {
	r.deletedCourses = append(r.deletedCourses, id)
	return r.Repository.DeleteCourse(ctx, id)
}

func (r *failingAssignmentRepo) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	if r.failCreate {
		return assignment.Assignment{}, errDown
	}
	return r.Repository.CreateAssignment(ctx, a)
}

func (r *failingLearnerRepo) IncrementTotalCourses(ctx context.Context, id string, delta int) error {
	if r.failIncrement {
		return errDown
	}
	return r.Repository.IncrementTotalCourses(ctx, id, delta)
}

func (r failingTemplateRepo) QueryTemplateDays(context.Context, string) ([]course.TemplateDay, error) {
	return nil, errDown
}

type fixture struct {
	svc         *assignment.Service
	courses     *failingCourseRepo
	templates   course.TemplateRepository
	learners    *failingLearnerRepo
	assignments *failingAssignmentRepo
	notifier    *fakeNotifier
	logger      *testutil.Logger
	actor       user.User
	tmplRepo    interface {
		AddTemplateDays(tds ...course.TemplateDay) []course.TemplateDay
	}
}

func setup(t *testing.T) *fixture {
	t.Helper()

	core.NowFunc = func() time.Time { return today }
	t.Cleanup(func() { core.NowFunc = time.Now })

	db := inmemdb.Open()
	tmplRepo := inmemdb.NewTemplateRepository(db)
	f := &fixture{
		courses:     &failingCourseRepo{Repository: inmemdb.NewCourseRepository(db)},
		templates:   tmplRepo,
		learners:    &failingLearnerRepo{Repository: inmemdb.NewLearnerRepository(db)},
		assignments: &failingAssignmentRepo{Repository: inmemdb.NewAssignmentRepository(db)},
		notifier:    new(fakeNotifier),
		logger:      new(testutil.Logger),
		tmplRepo:    tmplRepo,
	}
	f.actor = testutil.CreateAdmin(t, inmemdb.NewUserRepository(db), "admin")
	f.build()
	return f
}

// build (re)creates the service, e.g. after replacing a dependency.
func (f *fixture) build() {
	validate, _ := testutil.NewValidator()
	f.svc = assignment.NewService(assignment.Deps{
		Repo:      f.assignments,
		Courses:   f.courses,
		Templates: f.templates,
		Learners:  f.learners,
		Notifier:  f.notifier,
		Validate:  validate,
		Logger:    f.logger,
	})
}

func (f *fixture) countCourses(t *testing.T) int {
	t.Helper()
	cs, err := f.courses.QueryCourses(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("QueryCourses() failed: %v", err)
	}
	return len(cs)
}

func (f *fixture) countAssignments(t *testing.T) int {
	t.Helper()
	as, err := f.assignments.QueryAssignments(context.Background(), nil)
	if err != nil {
		t.Fatalf("QueryAssignments() failed: %v", err)
	}
	return len(as)
}

func (f *fixture) addTemplate(name string, days ...int) {
	tds := make([]course.TemplateDay, 0, len(days))
	for _, d := range days {
		tds = append(tds, course.TemplateDay{CourseName: name, Day: d, Module1Text: "lesson", Module2Text: "quiz"})
	}
	f.tmplRepo.AddTemplateDays(tds...)
}

func TestService_Assign_scenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := testutil.CreateLearner(t, f.learners, "Amani", "+243 81 234 5678", 0)
	c := testutil.CreateCourse(t, f.courses, "Money Basics", course.StatusActive, 5, 3)

	a, err := f.svc.Assign(ctx, f.actor, l.ID, assignment.AssignRequest{
		CourseID:  c.ID,
		StartDate: today.Format(assignment.StartDateLayout),
		Status:    assignment.StatusScheduled,
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if a.Status != assignment.StatusScheduled || a.CompletionPercentage != 0 {
		t.Errorf("Assign() = %s %d%%, want scheduled 0%%", a.Status, a.CompletionPercentage)
	}
	if a.LearnerID != l.ID || a.CourseID != c.ID {
		t.Errorf("Assign() = (%s, %s), want (%s, %s)", a.LearnerID, a.CourseID, l.ID, c.ID)
	}
	if want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC); !a.StartDate.Equal(want) {
		t.Errorf("Assign() StartDate = %v, want %v", a.StartDate, want)
	}
	if a.Course == nil || a.Course.Name != c.Name {
		t.Errorf("Assign() Course = %v, want %q", a.Course, c.Name)
	}
	if n := f.countAssignments(t); n != 1 {
		t.Errorf("assignments = %d, want 1", n)
	}

	if got, _ := f.learners.GetLearner(ctx, l.ID); got.TotalCourses != 1 {
		t.Errorf("learner total_courses = %d, want 1", got.TotalCourses)
	}
	if got, _ := f.courses.GetCourse(ctx, c.ID); got.TotalEnrollments != 6 {
		t.Errorf("course total_enrollments = %d, want 6", got.TotalEnrollments)
	}
	if len(f.notifier.assigned) != 1 || f.notifier.assigned[0] != (notifyCall{l.ID, c.ID}) {
		t.Errorf("notifications = %v, want one for (%s, %s)", f.notifier.assigned, l.ID, c.ID)
	}
}

func TestService_Assign_completion(t *testing.T) {
	tests := []struct {
		status         assignment.Status
		wantCompletion int
	}{
		{status: "", wantCompletion: 0},
		{status: assignment.StatusScheduled, wantCompletion: 0},
		{status: assignment.StatusInProgress, wantCompletion: 0},
		{status: assignment.StatusCompleted, wantCompletion: 100},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := setup(t)
			l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
			c := testutil.CreateCourse(t, f.courses, "Money Basics", course.StatusActive, 0, 1)

			a, err := f.svc.Assign(context.Background(), f.actor, l.ID, assignment.AssignRequest{
				CourseID:  c.ID,
				StartDate: today.AddDate(0, 0, 3).Format(assignment.StartDateLayout),
				Status:    tt.status,
			})
			if err != nil {
				t.Fatalf("Assign() error = %v", err)
			}
			if a.CompletionPercentage != tt.wantCompletion {
				t.Errorf("CompletionPercentage = %d, want %d", a.CompletionPercentage, tt.wantCompletion)
			}
			if tt.status == "" && a.Status != assignment.StatusScheduled {
				t.Errorf("Status = %s, want default %s", a.Status, assignment.StatusScheduled)
			}
		})
	}
}

func TestService_Assign_template(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	f.addTemplate("Money Basics", 3, 1, 2)
	f.tmplRepo.AddTemplateDays(course.TemplateDay{CourseName: "Money Basics", Day: 4})
	f.addTemplate("Other Course", 1)

	a, err := f.svc.Assign(ctx, f.actor, l.ID, assignment.AssignRequest{
		CourseID:  course.TemplateID("Money Basics"),
		StartDate: today.Format(assignment.StartDateLayout),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	c, err := f.courses.GetCourse(ctx, a.CourseID)
	if err != nil {
		t.Fatalf("GetCourse() error = %v", err)
	}
	if c.Name != "Money Basics" || c.Category != "Alfred Course" || c.Description != "Money Basics - Generated from Alfred course" {
		t.Errorf("course = %+v", c)
	}
	if c.Status != course.StatusActive || c.Visibility != course.VisibilityPublic || c.Language != course.DefaultLanguage {
		t.Errorf("course = %s %s %s", c.Status, c.Visibility, c.Language)
	}
	if c.CreatedBy != f.actor.ID {
		t.Errorf("course CreatedBy = %q, want %q", c.CreatedBy, f.actor.ID)
	}
	if c.TotalEnrollments != 1 {
		t.Errorf("course TotalEnrollments = %d, want 1", c.TotalEnrollments)
	}

	days, err := f.courses.QueryCourseDays(ctx, c.ID)
	if err != nil {
		t.Fatalf("QueryCourseDays() error = %v", err)
	}
	if len(days) != 4 {
		t.Fatalf("len(days) = %d, want 4", len(days))
	}
	for i, d := range days {
		if d.DayNumber != i+1 {
			t.Errorf("days[%d].DayNumber = %d, want %d", i, d.DayNumber, i+1)
		}
	}
	if days[0].Title != "Day 1" || days[0].Info != "lesson" || days[0].Module2 != "quiz" {
		t.Errorf("days[0] = %+v", days[0])
	}
	if days[3].Info != "No content available" {
		t.Errorf("days[3].Info = %q, want %q", days[3].Info, "No content available")
	}
}

func TestService_Assign_templatePreselectedName(t *testing.T) {
	f := setup(t)
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	f.addTemplate("Money-Basics 101", 1, 2)

	a, err := f.svc.Assign(context.Background(), f.actor, l.ID, assignment.AssignRequest{
		CourseID:   "alfred-Money-Basics-101",
		CourseName: "Money-Basics 101",
		StartDate:  today.Format(assignment.StartDateLayout),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if a.Course == nil || a.Course.Name != "Money-Basics 101" || len(a.Course.Days) != 2 {
		t.Errorf("Assign() Course = %+v, want the preselected template with 2 days", a.Course)
	}
}

func TestService_Assign_templateTwice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	f.addTemplate("Money Basics", 1, 2)

	req := assignment.AssignRequest{CourseID: course.TemplateID("Money Basics"), StartDate: today.Format(assignment.StartDateLayout)}
	first, err := f.svc.Assign(ctx, f.actor, l.ID, req)
	if err != nil {
		t.Fatalf("Assign() #1 error = %v", err)
	}
	second, err := f.svc.Assign(ctx, f.actor, l.ID, req)
	if err != nil {
		t.Fatalf("Assign() #2 error = %v", err)
	}

	if first.CourseID == second.CourseID {
		t.Error("a template assigned twice must generate two courses")
	}
	if n := f.countCourses(t); n != 2 {
		t.Errorf("courses = %d, want 2", n)
	}
	days, _ := f.courses.QueryCourseDays(ctx, first.CourseID, second.CourseID)
	if len(days) != 4 {
		t.Errorf("days = %d, want 4", len(days))
	}
	if got, _ := f.learners.GetLearner(ctx, l.ID); got.TotalCourses != 2 {
		t.Errorf("learner total_courses = %d, want 2", got.TotalCourses)
	}
}

func TestService_Assign_invalid(t *testing.T) {
	f := setup(t)
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	f.addTemplate("Money Basics", 1)
	tmplID := course.TemplateID("Money Basics")

	tests := []struct {
		name      string
		actor     user.User
		learnerID string
		req       assignment.AssignRequest
		wantErr   error
		wantField string
	}{
		{
			name:      "no actor",
			learnerID: l.ID,
			req:       assignment.AssignRequest{CourseID: tmplID, StartDate: today.Format(assignment.StartDateLayout)},
			wantErr:   assignment.ErrNoActor,
		},
		{
			name:      "past start date",
			actor:     f.actor,
			learnerID: l.ID,
			req:       assignment.AssignRequest{CourseID: tmplID, StartDate: today.AddDate(0, 0, -1).Format(assignment.StartDateLayout)},
			wantField: "start_date",
		},
		{
			name:      "malformed start date",
			actor:     f.actor,
			learnerID: l.ID,
			req:       assignment.AssignRequest{CourseID: tmplID, StartDate: "10/03/2026"},
			wantField: "start_date",
		},
		{
			name:      "no course",
			actor:     f.actor,
			learnerID: l.ID,
			req:       assignment.AssignRequest{CourseID: "  ", StartDate: today.Format(assignment.StartDateLayout)},
			wantField: "course_id",
		},
		{
			name:      "unknown status",
			actor:     f.actor,
			learnerID: l.ID,
			req:       assignment.AssignRequest{CourseID: tmplID, StartDate: today.Format(assignment.StartDateLayout), Status: "paused"},
			wantField: "status",
		},
		{
			name:      "unknown learner",
			actor:     f.actor,
			learnerID: "lol",
			req:       assignment.AssignRequest{CourseID: tmplID, StartDate: today.Format(assignment.StartDateLayout)},
			wantErr:   learner.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Assign(context.Background(), tt.actor, tt.learnerID, tt.req)
			if err == nil {
				t.Fatal("Assign() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Assign() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantField != "" && !testutil.HasFieldError(err, tt.wantField) {
				t.Errorf("Assign() error = %v, want an error on %q", err, tt.wantField)
			}
		})
	}

	if n := f.countCourses(t); n != 0 {
		t.Errorf("courses = %d, want 0", n)
	}
	if n := f.countAssignments(t); n != 0 {
		t.Errorf("assignments = %d, want 0", n)
	}
	if len(f.notifier.assigned) != 0 {
		t.Errorf("notifications = %d, want 0", len(f.notifier.assigned))
	}
}

func TestService_Assign_notificationFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 3)
	c := testutil.CreateCourse(t, f.courses, "Money Basics", course.StatusActive, 0, 1)
	f.notifier.fail = errors.New("whatsapp down")

	if _, err := f.svc.Assign(ctx, f.actor, l.ID, assignment.AssignRequest{
		CourseID:  c.ID,
		StartDate: today.Format(assignment.StartDateLayout),
	}); err != nil {
		t.Fatalf("Assign() error = %v, want success despite the notification failure", err)
	}

	if n := f.countAssignments(t); n != 1 {
		t.Errorf("assignments = %d, want 1", n)
	}
	if got, _ := f.learners.GetLearner(ctx, l.ID); got.TotalCourses != 4 {
		t.Errorf("learner total_courses = %d, want 4", got.TotalCourses)
	}
	logged := f.logger.HasArg("warn", func(arg interface{}) bool {
		_, ok := arg.(*assignment.NotificationError)
		return ok
	})
	if !logged {
		t.Error("the notification failure was not logged")
	}
}

func TestService_Assign_counterFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	c := testutil.CreateCourse(t, f.courses, "Money Basics", course.StatusActive, 0, 1)
	f.learners.failIncrement = true
	f.courses.failIncrement = true

	if _, err := f.svc.Assign(ctx, f.actor, l.ID, assignment.AssignRequest{
		CourseID:  c.ID,
		StartDate: today.Format(assignment.StartDateLayout),
	}); err != nil {
		t.Fatalf("Assign() error = %v, want success despite the counter failures", err)
	}

	counterErrs := 0
	for _, e := range f.logger.Entries("error") {
		for _, arg := range e.Args {
			if _, ok := arg.(*assignment.CounterUpdateError); ok {
				counterErrs++
			}
		}
	}
	if counterErrs != 2 {
		t.Errorf("logged counter errors = %d, want 2", counterErrs)
	}
	if len(f.notifier.assigned) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.notifier.assigned))
	}
}

func TestService_Assign_compensation(t *testing.T) {
	tests := []struct {
		name       string
		prepare    func(f *fixture)
		wantErr    interface{}
		wantDelete bool
	}{
		{
			name:    "course insert fails",
			prepare: func(f *fixture) { f.courses.failCreate = true },
			wantErr: new(*assignment.CreationError),
		},
		{
			name: "template days query fails",
			prepare: func(f *fixture) {
				f.templates = failingTemplateRepo{TemplateRepository: f.templates}
				f.build()
			},
			wantErr:    new(*assignment.CreationError),
			wantDelete: true,
		},
		{
			name:       "days insert fails",
			prepare:    func(f *fixture) { f.courses.failCreateDays = true },
			wantErr:    new(*assignment.CreationError),
			wantDelete: true,
		},
		{
			name:       "assignment insert fails",
			prepare:    func(f *fixture) { f.assignments.failCreate = true },
			wantErr:    new(*assignment.AssignmentError),
			wantDelete: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
			f.addTemplate("Money Basics", 1, 2, 3)
			tt.prepare(f)

			_, err := f.svc.Assign(ctx, f.actor, l.ID, assignment.AssignRequest{
				CourseID:  course.TemplateID("Money Basics"),
				StartDate: today.Format(assignment.StartDateLayout),
			})
			switch target := tt.wantErr.(type) {
			case **assignment.CreationError:
				if !errors.As(err, target) {
					t.Fatalf("Assign() error = %v, want a *CreationError", err)
				}
			case **assignment.AssignmentError:
				if !errors.As(err, target) {
					t.Fatalf("Assign() error = %v, want an *AssignmentError", err)
				}
			}
			if !errors.Is(err, errDown) {
				t.Errorf("Assign() error = %v, want it to wrap %v", err, errDown)
			}

			if n := f.countCourses(t); n != 0 {
				t.Errorf("courses = %d, want 0: the generated course must be removed", n)
			}
			if tt.wantDelete {
				if len(f.courses.deletedCourses) != 1 || f.courses.deletedCourses[0] != f.courses.createdCourseID {
					t.Errorf("deleted courses = %v, want [%s]", f.courses.deletedCourses, f.courses.createdCourseID)
				}
				if days, _ := f.courses.QueryCourseDays(ctx, f.courses.createdCourseID); len(days) != 0 {
					t.Errorf("days = %d, want 0", len(days))
				}
			}
			if n := f.countAssignments(t); n != 0 {
				t.Errorf("assignments = %d, want 0", n)
			}
			if got, _ := f.learners.GetLearner(ctx, l.ID); got.TotalCourses != 0 {
				t.Errorf("learner total_courses = %d, want 0", got.TotalCourses)
			}
			if len(f.notifier.assigned) != 0 {
				t.Errorf("notifications = %d, want 0", len(f.notifier.assigned))
			}
		})
	}
}

func TestService_Assign_existingCourseNotKept(t *testing.T) {
	f := setup(t)
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	c := testutil.CreateCourse(t, f.courses, "Money Basics", course.StatusActive, 0, 1)
	f.assignments.failCreate = true

	_, err := f.svc.Assign(context.Background(), f.actor, l.ID, assignment.AssignRequest{
		CourseID:  c.ID,
		StartDate: today.Format(assignment.StartDateLayout),
	})
	var aErr *assignment.AssignmentError
	if !errors.As(err, &aErr) {
		t.Fatalf("Assign() error = %v, want an *AssignmentError", err)
	}
	if len(f.courses.deletedCourses) != 0 {
		t.Errorf("deleted courses = %v: an existing course must never be removed", f.courses.deletedCourses)
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to assignment.Status
		want     bool
	}{
		{assignment.StatusScheduled, assignment.StatusInProgress, true},
		{assignment.StatusScheduled, assignment.StatusCompleted, true},
		{assignment.StatusInProgress, assignment.StatusCompleted, true},
		{assignment.StatusScheduled, assignment.StatusScheduled, false},
		{assignment.StatusInProgress, assignment.StatusScheduled, false},
		{assignment.StatusCompleted, assignment.StatusInProgress, false},
		{assignment.StatusCompleted, assignment.StatusScheduled, false},
		{assignment.StatusScheduled, "paused", false},
		{"paused", assignment.StatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_UpdateStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	c := testutil.CreateCourse(t, f.courses, "Money Basics", course.StatusActive, 0, 1)
	a, err := f.svc.Assign(ctx, f.actor, l.ID, assignment.AssignRequest{CourseID: c.ID, StartDate: today.Format(assignment.StartDateLayout)})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if a, err = f.svc.UpdateStatus(ctx, a, assignment.StatusInProgress); err != nil {
		t.Fatalf("UpdateStatus(in_progress) error = %v", err)
	}
	if a.Status != assignment.StatusInProgress || a.CompletionPercentage != 0 {
		t.Errorf("UpdateStatus() = %s %d%%", a.Status, a.CompletionPercentage)
	}

	if a, err = f.svc.UpdateStatus(ctx, a, assignment.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus(completed) error = %v", err)
	}
	if a.CompletionPercentage != 100 {
		t.Errorf("CompletionPercentage = %d, want 100", a.CompletionPercentage)
	}

	_, err = f.svc.UpdateStatus(ctx, a, assignment.StatusScheduled)
	if !errors.Is(err, assignment.ErrInvalidTransition) {
		t.Errorf("UpdateStatus(scheduled) error = %v, want %v", err, assignment.ErrInvalidTransition)
	}
	if got, _ := f.svc.GetByID(ctx, a.ID); got.Status != assignment.StatusCompleted {
		t.Errorf("stored status = %s, want %s", got.Status, assignment.StatusCompleted)
	}
}

func TestService_ActivateDue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	c := testutil.CreateCourse(t, f.courses, "Money Basics", course.StatusActive, 0, 1)

	assign := func(startIn int, status assignment.Status) assignment.Assignment {
		a, err := f.svc.Assign(ctx, f.actor, l.ID, assignment.AssignRequest{
			CourseID:  c.ID,
			StartDate: today.AddDate(0, 0, startIn).Format(assignment.StartDateLayout),
			Status:    status,
		})
		if err != nil {
			t.Fatalf("Assign() error = %v", err)
		}
		return a
	}
	due := assign(0, assignment.StatusScheduled)
	later := assign(2, assignment.StatusScheduled)
	done := assign(0, assignment.StatusCompleted)

	n, err := f.svc.ActivateDue(ctx, today)
	if err != nil {
		t.Fatalf("ActivateDue() error = %v", err)
	}
	if n != 1 {
		t.Errorf("ActivateDue() = %d, want 1", n)
	}

	wantStatus := map[string]assignment.Status{
		due.ID:   assignment.StatusInProgress,
		later.ID: assignment.StatusScheduled,
		done.ID:  assignment.StatusCompleted,
	}
	for id, want := range wantStatus {
		if got, _ := f.svc.GetByID(ctx, id); got.Status != want {
			t.Errorf("assignment %s status = %s, want %s", id, got.Status, want)
		}
	}
	if len(f.notifier.started) != 1 || f.notifier.started[0].learnerID != l.ID {
		t.Errorf("course start notifications = %v, want 1", f.notifier.started)
	}

	// nothing left to start
	if n, _ = f.svc.ActivateDue(ctx, today); n != 0 {
		t.Errorf("ActivateDue() again = %d, want 0", n)
	}
}

func TestService_AvailableCourses(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l := testutil.CreateLearner(t, f.learners, "Amani", "243812345678", 0)
	cB := testutil.CreateCourse(t, f.courses, "B course", course.StatusActive, 0, 0)
	cA := testutil.CreateCourse(t, f.courses, "A course", course.StatusActive, 0, 0)
	testutil.CreateCourse(t, f.courses, "Archived", course.StatusArchived, 0, 0)
	cC := testutil.CreateCourse(t, f.courses, "C course", course.StatusActive, 0, 0)

	if _, err := f.svc.Assign(ctx, f.actor, l.ID, assignment.AssignRequest{CourseID: cB.ID, StartDate: today.Format(assignment.StartDateLayout)}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	courses, err := f.svc.AvailableCourses(ctx, l.ID)
	if err != nil {
		t.Fatalf("AvailableCourses() error = %v", err)
	}
	want := []string{cA.ID, cC.ID}
	if len(courses) != len(want) {
		t.Fatalf("AvailableCourses() = %d courses, want %d", len(courses), len(want))
	}
	for i, c := range courses {
		if c.ID != want[i] {
			t.Errorf("AvailableCourses()[%d] = %s, want %s", i, c.Name, want[i])
		}
	}

	as, err := f.svc.QueryByLearner(ctx, l.ID)
	if err != nil {
		t.Fatalf("QueryByLearner() error = %v", err)
	}
	if len(as) != 1 || as[0].Course == nil || as[0].Course.ID != cB.ID {
		t.Errorf("QueryByLearner() = %+v, want the assignment with its course", as)
	}
}
