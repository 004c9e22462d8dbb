package course

// DaysFromForm numbers the form days of `courseID` from 1, in order.
func DaysFromForm(courseID string, nds []NewDay) []Day {
	days := make([]Day, 0, len(nds))
	for i, nd := range nds {
		days = append(days, Day{
			CourseID:  courseID,
			DayNumber: i + 1,
			Title:     nd.Title,
			Info:      nd.Info,
			MediaLink: nd.MediaLink,
			Module1:   nd.Module1,
			Module2:   nd.Module2,
			Module3:   nd.Module3,
		})
	}
	return days
}

// attachDays groups `days` by course and sets them on the matching courses.
func attachDays(courses []Course, days []Day) {
	byCourse := make(map[string][]Day, len(courses))
	for _, d := range days {
		byCourse[d.CourseID] = append(byCourse[d.CourseID], d)
	}
	for i := range courses {
		courses[i].Days = byCourse[courses[i].ID]
		if courses[i].Days == nil {
			courses[i].Days = []Day{}
		}
	}
}
