package services

import (
	"testing"
	"time"

	"tutortrack/models"
	"tutortrack/storage"
)

func newTestStore() storage.KVStore {
	return storage.NewMemoryStore()
}

func newTestDailyService(now time.Time) *DailyPaymentService {
	svc := NewDailyPaymentService(newTestStore())
	svc.Now = func() time.Time { return now }
	return svc
}

func TestPayTodayIdempotent(t *testing.T) {
	now := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	svc := newTestDailyService(now)
	svc.SetScheduledWeekdays(1, []int{3})

	if svc.IsTodayPaid(1) {
		t.Fatal("new student should not be paid")
	}

	if err := svc.PayToday(1); err != nil {
		t.Fatal(err)
	}
	if err := svc.PayToday(1); err != nil {
		t.Fatal(err)
	}

	if !svc.IsTodayPaid(1) {
		t.Error("today should be paid")
	}
	if got := svc.LastPaidDate(1); got != "2024-01-03" {
		t.Errorf("last paid date = %q, want 2024-01-03", got)
	}

	counter := svc.PaymentCounter(1)
	if counter.Paid != 1 {
		t.Errorf("paid count = %d after double pay, want 1", counter.Paid)
	}
}

func TestUnpayToday(t *testing.T) {
	now := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	svc := newTestDailyService(now)

	svc.PayToday(1)
	if err := svc.UnpayToday(1); err != nil {
		t.Fatal(err)
	}

	if svc.IsTodayPaid(1) {
		t.Error("today should no longer be paid")
	}
	if svc.LastPaidDate(1) != "" {
		t.Error("last paid date should be cleared")
	}
	if counter := svc.PaymentCounter(1); counter.Paid != 0 {
		t.Errorf("paid count = %d, want 0", counter.Paid)
	}
}

func TestPaymentCounter(t *testing.T) {
	// January 2024: Wednesdays fall on 3, 10, 17, 24, 31.
	now := time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC)
	svc := newTestDailyService(now)
	svc.SetScheduledWeekdays(1, []int{3})

	counter := svc.PaymentCounter(1)
	if counter.Total != 5 {
		t.Fatalf("total = %d, want 5 wednesdays in January 2024", counter.Total)
	}
	if counter.Paid != 0 || counter.Remaining != 5 {
		t.Errorf("counter = %+v, want 0 paid, 5 remaining", counter)
	}

	svc.PayToday(1)
	counter = svc.PaymentCounter(1)
	if counter.Paid != 1 || counter.Remaining != 4 {
		t.Errorf("counter after payment = %+v, want 1 paid, 4 remaining", counter)
	}
}

func TestScheduledDatesInMonth(t *testing.T) {
	svc := newTestDailyService(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))
	svc.SetScheduledWeekdays(1, []int{1, 3}) // Mondays and Wednesdays

	dates := svc.ScheduledDatesInMonth(1, 2024, 2)
	// February 2024: Mondays 5, 12, 19, 26; Wednesdays 7, 14, 21, 28.
	if len(dates) != 8 {
		t.Fatalf("expected 8 scheduled dates, got %d", len(dates))
	}
	for _, d := range dates {
		if wd := int(d.Weekday()); wd != 1 && wd != 3 {
			t.Errorf("scheduled date %v has weekday %d", d, wd)
		}
	}

	if got := svc.ScheduledDatesInMonth(99, 2024, 2); got != nil {
		t.Errorf("student without schedule should yield nil, got %d dates", len(got))
	}
}

func TestMissedPaymentStudents(t *testing.T) {
	// Today is Thursday the 4th; yesterday was Wednesday the 3rd.
	now := time.Date(2024, time.January, 4, 8, 0, 0, 0, time.UTC)
	svc := newTestDailyService(now)

	svc.SetScheduledWeekdays(1, []int{3})
	svc.SetScheduledWeekdays(2, []int{3})
	svc.SetScheduledWeekdays(3, []int{5}) // not scheduled yesterday

	// Student 2 paid yesterday.
	paidAt := time.Date(2024, time.January, 3, 19, 0, 0, 0, time.UTC)
	paidSvc := NewDailyPaymentService(svc.Store)
	paidSvc.Now = func() time.Time { return paidAt }
	if err := paidSvc.PayToday(2); err != nil {
		t.Fatal(err)
	}

	students := []models.Student{
		{BaseModel: models.BaseModel{ID: 1}, Name: "Missed", PaymentType: models.PaymentTypeDaily},
		{BaseModel: models.BaseModel{ID: 2}, Name: "Paid", PaymentType: models.PaymentTypeDaily},
		{BaseModel: models.BaseModel{ID: 3}, Name: "Friday", PaymentType: models.PaymentTypeDaily},
		{BaseModel: models.BaseModel{ID: 4}, Name: "Monthly", PaymentType: models.PaymentTypeMonthly},
	}

	missed := svc.MissedPaymentStudents(students)
	if len(missed) != 1 {
		t.Fatalf("expected 1 missed student, got %d", len(missed))
	}
	if missed[0].Student.ID != 1 {
		t.Errorf("missed student id = %d, want 1", missed[0].Student.ID)
	}
	if missed[0].MissedDate != "2024-01-03" || missed[0].MissedDayName != "Wednesday" {
		t.Errorf("missed info = %s %s", missed[0].MissedDate, missed[0].MissedDayName)
	}
}

func TestTodaysPaymentStudents(t *testing.T) {
	now := time.Date(2024, time.January, 3, 8, 0, 0, 0, time.UTC) // Wednesday
	svc := newTestDailyService(now)

	svc.SetScheduledWeekdays(1, []int{3})
	svc.SetScheduledWeekdays(2, []int{5})

	students := []models.Student{
		{BaseModel: models.BaseModel{ID: 1}, PaymentType: models.PaymentTypeDaily},
		{BaseModel: models.BaseModel{ID: 2}, PaymentType: models.PaymentTypeDaily},
		{BaseModel: models.BaseModel{ID: 3}, PaymentType: models.PaymentTypeMonthly, SelectedDays: models.IntSlice{3}},
	}

	due := svc.TodaysPaymentStudents(students)
	if len(due) != 1 || due[0].ID != 1 {
		t.Fatalf("expected only student 1 due today, got %d students", len(due))
	}
}

func TestLessonTimes(t *testing.T) {
	now := time.Date(2024, time.January, 3, 8, 0, 0, 0, time.UTC) // Wednesday
	svc := newTestDailyService(now)

	if got := svc.LessonTimeForDay(1, 3); got != DefaultLessonTime {
		t.Errorf("unset lesson time = %q, want default", got)
	}

	if err := svc.SetLessonTimeForDay(1, 3, "16:30"); err != nil {
		t.Fatal(err)
	}
	if got := svc.LessonTimeForDay(1, 3); got != "16:30" {
		t.Errorf("lesson time = %q, want 16:30", got)
	}
	if got := svc.TodaysLessonTime(1); got != "16:30" {
		t.Errorf("today's lesson time = %q, want 16:30", got)
	}
	// Other weekdays keep the default.
	if got := svc.LessonTimeForDay(1, 5); got != DefaultLessonTime {
		t.Errorf("friday lesson time = %q, want default", got)
	}

	if err := svc.SetLessonTimeForDay(1, 7, "10:00"); err == nil {
		t.Error("expected error for invalid weekday")
	}
	if err := svc.SetLessonTimeForDay(1, 3, "25:99"); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestClearStudent(t *testing.T) {
	now := time.Date(2024, time.January, 3, 8, 0, 0, 0, time.UTC)
	svc := newTestDailyService(now)

	svc.SetScheduledWeekdays(1, []int{3})
	svc.PayToday(1)
	svc.SetLessonTimeForDay(1, 3, "16:30")

	if err := svc.ClearStudent(1); err != nil {
		t.Fatal(err)
	}

	if svc.IsTodayPaid(1) {
		t.Error("cleared student should not be paid")
	}
	if len(svc.ScheduledWeekdays(1)) != 0 {
		t.Error("cleared student should have no schedule")
	}
	if got := svc.LessonTimeForDay(1, 3); got != DefaultLessonTime {
		t.Errorf("cleared lesson time = %q, want default", got)
	}
}
