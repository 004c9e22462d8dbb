package course

import "testing"

func TestTemplateID(t *testing.T) {
	tests := []struct {
		name, id string
	}{
		{"Money Basics", "alfred-Money-Basics"},
		{"Farming", "alfred-Farming"},
		{"Health and Hygiene 2", "alfred-Health-and-Hygiene-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := TemplateID(tt.name)
			if id != tt.id {
				t.Errorf("TemplateID() = %q, want %q", id, tt.id)
			}
			if !IsTemplateID(id) {
				t.Errorf("IsTemplateID(%q) = false", id)
			}
			if name := TemplateName(id); name != tt.name {
				t.Errorf("TemplateName() = %q, want %q", name, tt.name)
			}
		})
	}

	if IsTemplateID("8d6c4f2e-6b1a-4c8e-9d62-0b8f5d1c9e7a") {
		t.Error("IsTemplateID(uuid) = true")
	}
}

func TestDaysFromTemplate(t *testing.T) {
	tds := []TemplateDay{
		{Day: 1, Module1Text: "intro", Module2Text: "quiz"},
		{Day: 2},
		{Day: 5, Module1Text: "wrap up", Module3Text: "extra"},
	}
	days := DaysFromTemplate("c1", tds)
	if len(days) != 3 {
		t.Fatalf("DaysFromTemplate() = %d days, want 3", len(days))
	}

	want := []Day{
		{CourseID: "c1", DayNumber: 1, Title: "Day 1", Info: "intro", Module1: "intro", Module2: "quiz"},
		{CourseID: "c1", DayNumber: 2, Title: "Day 2", Info: "No content available"},
		{CourseID: "c1", DayNumber: 5, Title: "Day 5", Info: "wrap up", Module1: "wrap up", Module3: "extra"},
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("DaysFromTemplate()[%d] = %+v, want %+v", i, days[i], want[i])
		}
	}
}
