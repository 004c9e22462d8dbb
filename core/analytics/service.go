// Package analytics computes the dashboard summary figures.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core/assignment"
	"github.com/trezcool/microlearn/core/course"
	"github.com/trezcool/microlearn/core/learner"
	"github.com/trezcool/microlearn/core/notification"
)

const dayLayout = "2006-01-02"

type (
	MessageCounts struct {
		Total    int `json:"total"`
		Whatsapp int `json:"whatsapp"`
		Email    int `json:"email"`
	}

	DayCount struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}

	CourseCount struct {
		Course string `json:"course"`
		Count  int    `json:"count"`
	}

	Summary struct {
		TotalLearners     int           `json:"total_learners"`
		ActiveCourses     int           `json:"active_courses"`
		MessagesSent      MessageCounts `json:"messages_sent"`
		CompletionRate    float64       `json:"completion_rate"` // % of assignments completed
		MessagesPerDay    []DayCount    `json:"messages_per_day"`
		LearnersPerCourse []CourseCount `json:"learners_per_course"`
	}

	Deps struct {
		Learners    learner.Repository
		Courses     course.Repository
		Assignments assignment.Repository
		Messages    notification.Repository
	}

	Service struct {
		learners    learner.Repository
		courses     course.Repository
		assignments assignment.Repository
		messages    notification.Repository
	}
)

func NewService(deps Deps) *Service {
	return &Service{
		learners:    deps.Learners,
		courses:     deps.Courses,
		assignments: deps.Assignments,
		messages:    deps.Messages,
	}
}

// Summarize computes the dashboard figures. Messages per day cover the `days` days up to `now`.
func (svc *Service) Summarize(ctx context.Context, now time.Time, days int) (Summary, error) {
	var sum Summary

	learners, err := svc.learners.QueryLearners(ctx, nil, nil)
	if err != nil {
		return sum, errors.Wrap(err, "querying learners")
	}
	sum.TotalLearners = len(learners)

	courses, err := svc.courses.QueryCourses(ctx, nil, nil)
	if err != nil {
		return sum, errors.Wrap(err, "querying courses")
	}
	names := make(map[string]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
		if c.Status == course.StatusActive {
			sum.ActiveCourses++
		}
	}

	as, err := svc.assignments.QueryAssignments(ctx, nil)
	if err != nil {
		return sum, errors.Wrap(err, "querying assignments")
	}
	sum.CompletionRate, sum.LearnersPerCourse = completion(as, names)

	since := now.UTC().AddDate(0, 0, -days+1)
	since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)
	msgs, err := svc.messages.QueryMessages(ctx, nil, nil)
	if err != nil {
		return sum, errors.Wrap(err, "querying messages")
	}
	sum.MessagesSent, sum.MessagesPerDay = messageCounts(msgs, since, days)
	return sum, nil
}

func completion(as []assignment.Assignment, courseNames map[string]string) (float64, []CourseCount) {
	var completed int
	learners := make(map[string]map[string]bool)
	for _, a := range as {
		if a.Status == assignment.StatusCompleted {
			completed++
		}
		if learners[a.CourseID] == nil {
			learners[a.CourseID] = make(map[string]bool)
		}
		learners[a.CourseID][a.LearnerID] = true
	}

	perCourse := make([]CourseCount, 0, len(learners))
	for id, ls := range learners {
		name, ok := courseNames[id]
		if !ok {
			continue
		}
		perCourse = append(perCourse, CourseCount{Course: name, Count: len(ls)})
	}
	sort.Slice(perCourse, func(i, j int) bool {
		if perCourse[i].Count != perCourse[j].Count {
			return perCourse[i].Count > perCourse[j].Count
		}
		return perCourse[i].Course < perCourse[j].Course
	})

	if len(as) == 0 {
		return 0, perCourse
	}
	return float64(completed) * 100 / float64(len(as)), perCourse
}

func messageCounts(msgs []notification.Message, since time.Time, days int) (MessageCounts, []DayCount) {
	var counts MessageCounts
	perDay := make(map[string]int, days)
	for _, m := range msgs {
		if m.Status == notification.StatusFailed {
			continue
		}
		counts.Total++
		switch m.Type {
		case notification.TypeWhatsapp:
			counts.Whatsapp++
		case notification.TypeEmail:
			counts.Email++
		}
		if !m.SentAt.Before(since) {
			perDay[m.SentAt.UTC().Format(dayLayout)]++
		}
	}

	series := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		date := since.AddDate(0, 0, i).Format(dayLayout)
		series = append(series, DayCount{Date: date, Count: perDay[date]})
	}
	return counts, series
}
