package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
	"github.com/trezcool/microlearn/core/course"
	"github.com/trezcool/microlearn/core/learner"
)

// ErrNotificationFailed is the cause of every error returned by the Service notifiers.
var ErrNotificationFailed = errors.New("failed to send notification")

var (
	OrderingFields  = []string{"sent_at", "type", "status"}
	defaultOrdering = []core.DBOrdering{{Field: "sent_at", Ascending: false}}
)

type (
	Deps struct {
		Repo         Repository
		Learners     learner.Repository
		Courses      course.Repository
		Messenger    core.Messenger
		Mailer       core.EmailService
		EmailEnabled bool
		Logger       core.Logger
	}

	// Service delivers the learner notifications, one attempt each, and keeps a record of them.
	Service struct {
		repo         Repository
		learners     learner.Repository
		courses      course.Repository
		messenger    core.Messenger
		mailer       core.EmailService
		emailEnabled bool
		logger       core.Logger
	}
)

func NewService(deps Deps) *Service {
	return &Service{
		repo:         deps.Repo,
		learners:     deps.Learners,
		courses:      deps.Courses,
		messenger:    deps.Messenger,
		mailer:       deps.Mailer,
		emailEnabled: deps.EmailEnabled && deps.Mailer != nil,
		logger:       deps.Logger,
	}
}

func failed(err error) error {
	return errors.Wrapf(ErrNotificationFailed, "%v", err)
}

type recipient struct {
	learner  learner.Learner
	course   course.Course
	phone    string
	firstDay string
}

func (svc *Service) resolve(ctx context.Context, learnerID, courseID string) (recipient, error) {
	var rcpt recipient
	var err error

	if rcpt.learner, err = svc.learners.GetLearner(ctx, learnerID); err != nil {
		return rcpt, errors.Wrap(err, "finding learner")
	}
	if rcpt.course, err = svc.courses.GetCourse(ctx, courseID); err != nil {
		return rcpt, errors.Wrap(err, "finding course")
	}
	if days, err := svc.courses.QueryCourseDays(ctx, courseID); err == nil && len(days) > 0 {
		rcpt.firstDay = days[0].ID
	}
	rcpt.phone, err = core.NormalizePhone(rcpt.learner.Phone)
	return rcpt, err
}

// NotifyAssignment tells a learner a course was assigned to them: a WhatsApp message with a start button
// and, when enabled, an email. Every failure is reported as ErrNotificationFailed.
func (svc *Service) NotifyAssignment(ctx context.Context, learnerID, courseID string, startAt time.Time) error {
	rcpt, err := svc.resolve(ctx, learnerID, courseID)
	if err != nil {
		if rcpt.course.ID != "" {
			svc.record(ctx, rcpt, TypeWhatsapp, err)
		}
		return failed(err)
	}

	msg := AssignmentMessage(rcpt.learner.Name, rcpt.course.Name, rcpt.phone)
	sendErr := svc.messenger.SendInteractiveMessage(ctx, msg)
	svc.record(ctx, rcpt, TypeWhatsapp, sendErr)

	if svc.emailEnabled && rcpt.learner.Email != "" {
		svc.mailer.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: rcpt.learner.Name, Address: rcpt.learner.Email}},
			Subject:      fmt.Sprintf(assignedEmailSubject, rcpt.course.Name),
			TemplateName: assignedEmailTemplate,
			TemplateData: assignedEmailData{
				LearnerName: rcpt.learner.Name,
				CourseName:  rcpt.course.Name,
				StartDate:   startAt.Format("Mon, 02 Jan 2006"),
			},
		})
		svc.record(ctx, rcpt, TypeEmail, nil)
	}

	if sendErr != nil {
		return failed(sendErr)
	}
	return nil
}

// NotifyCourseStart tells a learner their course starts today.
func (svc *Service) NotifyCourseStart(ctx context.Context, learnerID, courseID string) error {
	rcpt, err := svc.resolve(ctx, learnerID, courseID)
	if err != nil {
		return failed(err)
	}
	sendErr := svc.messenger.SendText(ctx, rcpt.phone, CourseStartText(rcpt.learner.Name, rcpt.course.Name))
	svc.record(ctx, rcpt, TypeWhatsapp, sendErr)
	if sendErr != nil {
		return failed(sendErr)
	}
	return nil
}

// record stores the outcome of a delivery attempt. It never fails the notification.
func (svc *Service) record(ctx context.Context, rcpt recipient, typ Type, sendErr error) {
	status := StatusSent
	if sendErr != nil {
		status = StatusFailed
	}
	now := core.NowFunc().UTC()
	m := Message{
		LearnerID:   rcpt.learner.ID,
		CourseID:    rcpt.course.ID,
		CourseDayID: rcpt.firstDay,
		Type:        typ,
		Status:      status,
		SentAt:      now,
		CreatedAt:   now,
	}
	if _, err := svc.repo.CreateMessage(ctx, m); err != nil {
		svc.logger.Error(fmt.Sprintf("recording %s message: %v", typ, err), err)
	}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Message, error) {
	ordering = core.AllowedOrderings(ordering, OrderingFields...)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	return svc.repo.QueryMessages(ctx, filter, ordering)
}
