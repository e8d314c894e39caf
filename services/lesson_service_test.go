package services

import (
	"testing"
	"time"

	"tutortrack/models"
)

func TestLessonStatus(t *testing.T) {
	cases := []struct {
		name   string
		lesson models.Lesson
		want   string
	}{
		{"pending", models.Lesson{}, LessonStatusPending},
		{"completed", models.Lesson{Completed: true}, LessonStatusCompleted},
		{"cancelled", models.Lesson{Cancelled: true}, LessonStatusCancelled},
		{"cancelled wins over completed", models.Lesson{Completed: true, Cancelled: true}, LessonStatusCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LessonStatus(tc.lesson); got != tc.want {
				t.Errorf("LessonStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestToggleCompletion(t *testing.T) {
	lesson := models.Lesson{}

	ToggleCompletion(&lesson)
	if !lesson.Completed {
		t.Error("first toggle should complete the lesson")
	}
	ToggleCompletion(&lesson)
	if lesson.Completed {
		t.Error("second toggle should revert to pending")
	}
}

func TestToggleCompletionOnCancelledIsNoop(t *testing.T) {
	lesson := models.Lesson{Cancelled: true}

	ToggleCompletion(&lesson)
	if lesson.Completed {
		t.Error("cancelled lesson must not become completed")
	}
	if !lesson.Cancelled {
		t.Error("cancelled flag must survive the toggle attempt")
	}
}

func TestToggleCancellation(t *testing.T) {
	lesson := models.Lesson{Completed: true}

	ToggleCancellation(&lesson)
	if !lesson.Cancelled {
		t.Error("lesson should be cancelled")
	}
	if lesson.Completed {
		t.Error("cancelling must clear completed")
	}

	ToggleCancellation(&lesson)
	if lesson.Cancelled {
		t.Error("second toggle should uncancel")
	}
	if lesson.Completed {
		t.Error("uncancelling must not restore completed")
	}
}

func TestSetStatus(t *testing.T) {
	cases := []struct {
		status        string
		wantCompleted bool
		wantCancelled bool
	}{
		{LessonStatusPending, false, false},
		{LessonStatusCompleted, true, false},
		{LessonStatusCancelled, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			lesson := models.Lesson{Completed: true, Cancelled: false}
			if err := SetStatus(&lesson, tc.status); err != nil {
				t.Fatal(err)
			}
			if lesson.Completed != tc.wantCompleted || lesson.Cancelled != tc.wantCancelled {
				t.Errorf("flags = (%v, %v), want (%v, %v)",
					lesson.Completed, lesson.Cancelled, tc.wantCompleted, tc.wantCancelled)
			}
		})
	}

	lesson := models.Lesson{}
	if err := SetStatus(&lesson, "postponed"); err != ErrInvalidLessonStatus {
		t.Errorf("SetStatus with bad status = %v, want ErrInvalidLessonStatus", err)
	}
}

func TestRestoreAndReschedule(t *testing.T) {
	lesson := models.Lesson{Cancelled: true}
	Restore(&lesson)
	if lesson.Cancelled || lesson.Completed {
		t.Error("restore should clear both flags")
	}

	lesson = models.Lesson{Cancelled: true, Date: time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)}
	Reschedule(&lesson)
	if lesson.Cancelled {
		t.Error("reschedule should put the lesson back on the board")
	}
	if !lesson.Date.Equal(time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)) {
		t.Error("reschedule must not move the date")
	}
}

func TestTogglePaidOrthogonalToCancellation(t *testing.T) {
	lesson := models.Lesson{}

	TogglePaid(&lesson)
	if !lesson.Paid {
		t.Fatal("lesson should be paid")
	}

	ToggleCancellation(&lesson)
	if !lesson.Paid {
		t.Error("paid flag must survive cancellation")
	}

	TogglePaid(&lesson)
	if lesson.Paid {
		t.Error("second toggle should unpay")
	}
}

func TestUpdateLessonTime(t *testing.T) {
	lesson := models.Lesson{Time: "09:00"}

	if err := UpdateLessonTime(&lesson, "14:30"); err != nil {
		t.Fatal(err)
	}
	if lesson.Time != "14:30" {
		t.Errorf("time = %q, want 14:30", lesson.Time)
	}

	for _, bad := range []string{"", "24:00", "9:60", "noon"} {
		if err := UpdateLessonTime(&lesson, bad); err == nil {
			t.Errorf("expected error for time %q", bad)
		}
	}
	if lesson.Time != "14:30" {
		t.Error("failed update must not change the time")
	}
}

func TestFindLesson(t *testing.T) {
	student := models.Student{
		Lessons: models.LessonList{{ID: "a"}, {ID: "b"}},
	}

	lesson, err := FindLesson(&student, "b")
	if err != nil {
		t.Fatal(err)
	}

	// The returned pointer aliases the list so mutations persist.
	lesson.Completed = true
	if !student.Lessons[1].Completed {
		t.Error("mutation through FindLesson pointer did not stick")
	}

	if _, err := FindLesson(&student, "missing"); err != ErrLessonNotFound {
		t.Errorf("FindLesson for missing id = %v, want ErrLessonNotFound", err)
	}
}

func TestNormalizeStudent(t *testing.T) {
	student := models.Student{
		SelectedDays: models.IntSlice{3, 1, 3, 9},
		Lessons: models.LessonList{
			{ID: "a", Date: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "b", Date: time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC), Completed: true, Cancelled: true},
		},
	}

	NormalizeStudent(&student)

	if student.PaymentType != models.PaymentTypeMonthly {
		t.Errorf("payment type = %q, want monthly default", student.PaymentType)
	}
	if student.Currency != "TRY" {
		t.Errorf("currency = %q, want TRY default", student.Currency)
	}
	if len(student.SelectedDays) != 2 || student.SelectedDays[0] != 1 || student.SelectedDays[1] != 3 {
		t.Errorf("selected days = %v, want [1 3]", student.SelectedDays)
	}
	if student.WeeklyLessonCount != 2 {
		t.Errorf("weekly lesson count = %d, want 2", student.WeeklyLessonCount)
	}
	if student.Lessons[0].Time != DefaultLessonTime {
		t.Errorf("lesson time = %q, want default", student.Lessons[0].Time)
	}
	if student.Lessons[0].DayName != "Monday" {
		t.Errorf("day name = %q, want Monday", student.Lessons[0].DayName)
	}
	if student.Lessons[1].Completed {
		t.Error("completed must be cleared when a lesson is also cancelled")
	}
	if !student.Lessons[1].Cancelled {
		t.Error("cancelled flag should be kept")
	}
}
