package services

import (
	"testing"
	"time"

	"tutortrack/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		name         string
		input        time.Time
		weekStartDay int
		want         time.Time
	}{
		{"monday week, wednesday input", date(2024, time.January, 3), 1, date(2024, time.January, 1)},
		{"monday week, monday input", date(2024, time.January, 1), 1, date(2024, time.January, 1)},
		{"sunday week, wednesday input", date(2024, time.January, 3), 0, date(2023, time.December, 31)},
		{"saturday week, sunday input", date(2024, time.January, 7), 6, date(2024, time.January, 6)},
		{"time of day is stripped", time.Date(2024, time.January, 3, 18, 45, 12, 0, time.UTC), 1, date(2024, time.January, 1)},
		{"year boundary", date(2024, time.January, 1), 0, date(2023, time.December, 31)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekStart(tc.input, tc.weekStartDay)
			if !got.Equal(tc.want) {
				t.Errorf("WeekStart(%v, %d) = %v, want %v", tc.input, tc.weekStartDay, got, tc.want)
			}
		})
	}
}

func TestWeekStartProperties(t *testing.T) {
	// Every combination of weekday and week start day must satisfy the three
	// invariants: correct weekday, never after the input, within seven days.
	base := date(2024, time.March, 10)
	for offset := 0; offset < 7; offset++ {
		input := base.AddDate(0, 0, offset)
		for wsd := 0; wsd < 7; wsd++ {
			got := WeekStart(input, wsd)
			if int(got.Weekday()) != wsd {
				t.Errorf("WeekStart(%v, %d) weekday = %d, want %d", input, wsd, int(got.Weekday()), wsd)
			}
			if got.After(input) {
				t.Errorf("WeekStart(%v, %d) = %v is after input", input, wsd, got)
			}
			if input.Sub(got) >= 7*24*time.Hour {
				t.Errorf("WeekStart(%v, %d) = %v is more than a week before input", input, wsd, got)
			}
		}
	}
}

func TestWeekStartIdempotent(t *testing.T) {
	for wsd := 0; wsd < 7; wsd++ {
		input := date(2024, time.June, 14)
		once := WeekStart(input, wsd)
		twice := WeekStart(once, wsd)
		if !once.Equal(twice) {
			t.Errorf("WeekStart not idempotent for weekStartDay %d: %v != %v", wsd, once, twice)
		}
	}
}

func TestGenerateLessonDates(t *testing.T) {
	weekStart := date(2024, time.January, 1) // Monday
	lessons := GenerateLessonDates(weekStart, []int{1, 3}, 1)

	if len(lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(lessons))
	}
	if !lessons[0].Date.Equal(date(2024, time.January, 1)) {
		t.Errorf("first lesson date = %v, want 2024-01-01", lessons[0].Date)
	}
	if !lessons[1].Date.Equal(date(2024, time.January, 3)) {
		t.Errorf("second lesson date = %v, want 2024-01-03", lessons[1].Date)
	}
	for _, lesson := range lessons {
		if lesson.ID == "" {
			t.Error("lesson generated without an id")
		}
		if lesson.Time != DefaultLessonTime {
			t.Errorf("lesson time = %q, want %q", lesson.Time, DefaultLessonTime)
		}
		if lesson.Completed || lesson.Cancelled || lesson.Paid {
			t.Error("generated lesson should start with all flags clear")
		}
	}
	if lessons[0].DayName != "Monday" || lessons[1].DayName != "Wednesday" {
		t.Errorf("day names = %q, %q", lessons[0].DayName, lessons[1].DayName)
	}
}

func TestGenerateLessonDatesWrapsAroundWeek(t *testing.T) {
	// Week starts Monday; Sunday (0) is the last day of that week.
	weekStart := date(2024, time.January, 1)
	lessons := GenerateLessonDates(weekStart, []int{0}, 1)

	if len(lessons) != 1 {
		t.Fatalf("expected 1 lesson, got %d", len(lessons))
	}
	if !lessons[0].Date.Equal(date(2024, time.January, 7)) {
		t.Errorf("sunday lesson date = %v, want 2024-01-07", lessons[0].Date)
	}
}

func TestGenerateLessonDatesEmptySelection(t *testing.T) {
	lessons := GenerateLessonDates(date(2024, time.January, 1), nil, 1)
	if len(lessons) != 0 {
		t.Errorf("expected no lessons for empty selection, got %d", len(lessons))
	}
}

func TestLessonsForWeek(t *testing.T) {
	student := models.Student{
		Lessons: models.LessonList{
			{ID: "a", Date: date(2024, time.January, 1)},
			{ID: "b", Date: date(2024, time.January, 3)},
			{ID: "c", Date: date(2024, time.January, 8)},
		},
	}

	got := LessonsForWeek(student, date(2024, time.January, 1), 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 lessons in week, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("got lessons %q, %q; want a, b", got[0].ID, got[1].ID)
	}

	next := LessonsForWeek(student, date(2024, time.January, 8), 1)
	if len(next) != 1 || next[0].ID != "c" {
		t.Errorf("expected only lesson c in next week, got %d lessons", len(next))
	}
}

func TestWeeklyView(t *testing.T) {
	student := models.Student{
		Lessons: models.LessonList{
			{ID: "mon", Date: date(2024, time.January, 1)},
			{ID: "fri", Date: date(2024, time.January, 5)},
		},
	}

	view := WeeklyView(student, date(2024, time.January, 1), 1)
	if len(view) != 7 {
		t.Fatalf("expected 7 day slots, got %d", len(view))
	}

	if !view[0].HasLesson || view[0].Lesson.ID != "mon" {
		t.Error("monday slot should hold lesson mon")
	}
	if !view[4].HasLesson || view[4].Lesson.ID != "fri" {
		t.Error("friday slot should hold lesson fri")
	}
	for _, idx := range []int{1, 2, 3, 5, 6} {
		if view[idx].HasLesson {
			t.Errorf("slot %d should be empty", idx)
		}
	}
	if view[0].DayName != "Monday" || view[6].DayName != "Sunday" {
		t.Errorf("slot day names = %q..%q", view[0].DayName, view[6].DayName)
	}
}

func TestWeekNavigation(t *testing.T) {
	start := date(2024, time.January, 1)

	next := NextWeek(start)
	if !next.Equal(date(2024, time.January, 8)) {
		t.Errorf("NextWeek = %v, want 2024-01-08", next)
	}

	prev := PreviousWeek(start)
	if !prev.Equal(date(2023, time.December, 25)) {
		t.Errorf("PreviousWeek = %v, want 2023-12-25", prev)
	}

	if !PreviousWeek(NextWeek(start)).Equal(start) {
		t.Error("PreviousWeek(NextWeek(w)) should round-trip")
	}
}

func TestEnsureWeekLessons(t *testing.T) {
	student := models.Student{
		SelectedDays: models.IntSlice{1, 3},
		PaymentType:  models.PaymentTypeMonthly,
	}
	weekStart := date(2024, time.January, 1)

	if !EnsureWeekLessons(&student, weekStart, 1) {
		t.Fatal("expected lessons to be generated")
	}
	if len(student.Lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(student.Lessons))
	}

	// Second call is a no-op.
	if EnsureWeekLessons(&student, weekStart, 1) {
		t.Error("expected no regeneration when lessons already exist")
	}
	if len(student.Lessons) != 2 {
		t.Errorf("lesson count changed to %d", len(student.Lessons))
	}

	// Daily students never get persisted lessons.
	daily := models.Student{
		SelectedDays: models.IntSlice{1},
		PaymentType:  models.PaymentTypeDaily,
	}
	if EnsureWeekLessons(&daily, weekStart, 1) {
		t.Error("daily student should not get persisted lessons")
	}
}

func TestRegenerateWeekLessons(t *testing.T) {
	weekStart := date(2024, time.January, 1)
	student := models.Student{
		SelectedDays: models.IntSlice{1, 3},
		PaymentType:  models.PaymentTypeMonthly,
	}
	student.Lessons = GenerateLessonDates(weekStart, []int{1, 3}, 1)
	// Mark Monday completed and add a lesson from another week.
	student.Lessons[0].Completed = true
	previous := models.Lesson{ID: "old", Date: date(2023, time.December, 25)}
	student.Lessons = append(student.Lessons, previous)

	student.SelectedDays = models.IntSlice{2}
	RegenerateWeekLessons(&student, weekStart, 1)

	if len(student.Lessons) != 2 {
		t.Fatalf("expected 2 lessons after regeneration, got %d", len(student.Lessons))
	}
	if student.Lessons[0].ID != "old" {
		t.Error("lesson from another week should survive regeneration")
	}
	if !student.Lessons[1].Date.Equal(date(2024, time.January, 2)) {
		t.Errorf("regenerated lesson date = %v, want 2024-01-02", student.Lessons[1].Date)
	}
	if student.Lessons[1].Completed {
		t.Error("regenerated lesson should not inherit completion")
	}
}

func TestTodaysLessons(t *testing.T) {
	now := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC) // Wednesday
	weekStart := date(2024, time.January, 1)

	daily := NewDailyPaymentService(newTestStore())
	daily.Now = func() time.Time { return now }
	if err := daily.SetScheduledWeekdays(2, []int{3}); err != nil {
		t.Fatal(err)
	}

	query := NewLessonQueryService(daily)
	query.Now = func() time.Time { return now }

	students := []models.Student{
		{
			BaseModel:   models.BaseModel{ID: 1},
			Name:        "Monthly Mia",
			PaymentType: models.PaymentTypeMonthly,
			Lessons: models.LessonList{
				{ID: "today", Date: date(2024, time.January, 3), Time: "15:00"},
				{ID: "other", Date: date(2024, time.January, 4), Time: "10:00"},
			},
		},
		{
			BaseModel:   models.BaseModel{ID: 2},
			Name:        "Daily Dan",
			PaymentType: models.PaymentTypeDaily,
		},
		{
			BaseModel:   models.BaseModel{ID: 3},
			Name:        "Daily Dana",
			PaymentType: models.PaymentTypeDaily,
			// No schedule stored, so no virtual lesson.
		},
	}

	lessons := query.TodaysLessons(students, weekStart, 1)
	if len(lessons) != 2 {
		t.Fatalf("expected 2 lessons today, got %d", len(lessons))
	}

	// Sorted by time: virtual daily lesson at the default 09:00 first.
	if !lessons[0].Virtual || lessons[0].StudentID != 2 {
		t.Errorf("first lesson should be Dan's virtual one, got student %d", lessons[0].StudentID)
	}
	if lessons[0].Time != DefaultLessonTime {
		t.Errorf("virtual lesson time = %q, want default", lessons[0].Time)
	}
	if lessons[1].ID != "today" || lessons[1].StudentID != 1 {
		t.Errorf("second lesson should be Mia's persisted one, got %q", lessons[1].ID)
	}
}

func TestCancelledLessons(t *testing.T) {
	students := []models.Student{
		{
			BaseModel: models.BaseModel{ID: 1},
			Name:      "A",
			Lessons: models.LessonList{
				{ID: "x", Cancelled: true},
				{ID: "y"},
			},
		},
		{
			BaseModel: models.BaseModel{ID: 2},
			Name:      "B",
			Lessons:   models.LessonList{{ID: "z", Cancelled: true}},
		},
	}

	got := CancelledLessons(students)
	if len(got) != 2 {
		t.Fatalf("expected 2 cancelled lessons, got %d", len(got))
	}
	if got[0].ID != "x" || got[1].ID != "z" {
		t.Errorf("cancelled ids = %q, %q", got[0].ID, got[1].ID)
	}
}
