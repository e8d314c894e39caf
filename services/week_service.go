package services

import (
	"fmt"
	"sort"
	"time"

	"tutortrack/models"
	"tutortrack/utils"

	"github.com/google/uuid"
)

// DefaultLessonTime is the wall clock time assigned to newly generated lessons.
const DefaultLessonTime = "09:00"

// WeekStart returns the start-of-day instant of the week containing t, where
// weeks begin on weekStartDay (0=Sunday..6=Saturday). The result's weekday
// equals weekStartDay, the result is never after t, and t minus the result is
// less than seven days.
func WeekStart(t time.Time, weekStartDay int) time.Time {
	daysToSubtract := (int(t.Weekday()) - weekStartDay + 7) % 7
	d := t.AddDate(0, 0, -daysToSubtract)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// GenerateLessonDates creates one lesson per selected weekday inside the
// 7-day window starting at weekStart. Weekdays are processed in ascending
// numeric order; an empty selection yields an empty slice.
func GenerateLessonDates(weekStart time.Time, selectedDays []int, weekStartDay int) []models.Lesson {
	days := utils.UniqueWeekdays(selectedDays)
	lessons := make([]models.Lesson, 0, len(days))

	for _, day := range days {
		daysToAdd := (day - weekStartDay + 7) % 7
		lessonDate := weekStart.AddDate(0, 0, daysToAdd)

		lessons = append(lessons, models.Lesson{
			ID:        uuid.New().String(),
			Date:      lessonDate,
			Time:      DefaultLessonTime,
			DayName:   utils.DayNames[int(lessonDate.Weekday())],
			Completed: false,
			Cancelled: false,
			Paid:      false,
		})
	}

	return lessons
}

// LessonsForWeek filters a student's lessons to those belonging to the week
// of currentWeekStart. Ownership is decided by exact instant equality of the
// normalized week starts, not by calendar-date comparison.
func LessonsForWeek(student models.Student, currentWeekStart time.Time, weekStartDay int) []models.Lesson {
	target := WeekStart(currentWeekStart, weekStartDay)

	var filtered []models.Lesson
	for _, lesson := range student.Lessons {
		if WeekStart(lesson.Date, weekStartDay).Equal(target) {
			filtered = append(filtered, lesson)
		}
	}
	return filtered
}

// DaySlot is one of the seven days in a weekly view.
type DaySlot struct {
	DayOfWeek int            `json:"day_of_week"`
	DayName   string         `json:"day_name"`
	Date      time.Time      `json:"date"`
	Lesson    *models.Lesson `json:"lesson"`
	HasLesson bool           `json:"has_lesson"`
}

// WeeklyView produces exactly seven day slots, offsets 0..6 from
// currentWeekStart, each annotated with the matching lesson for that weekday
// if present. If two lessons share a weekday in the same week the last one
// wins.
func WeeklyView(student models.Student, currentWeekStart time.Time, weekStartDay int) []DaySlot {
	weekLessons := LessonsForWeek(student, currentWeekStart, weekStartDay)

	view := make([]DaySlot, 0, 7)
	for i := 0; i < 7; i++ {
		dayDate := currentWeekStart.AddDate(0, 0, i)
		dayOfWeek := int(dayDate.Weekday())

		var lessonForDay *models.Lesson
		for idx := range weekLessons {
			if int(weekLessons[idx].Date.Weekday()) == dayOfWeek {
				lessonForDay = &weekLessons[idx]
			}
		}

		view = append(view, DaySlot{
			DayOfWeek: dayOfWeek,
			DayName:   utils.DayNames[dayOfWeek],
			Date:      dayDate,
			Lesson:    lessonForDay,
			HasLesson: lessonForDay != nil,
		})
	}

	return view
}

// EnsureWeekLessons appends generated lessons for the given week when the
// student has none there yet. Daily payment students keep no persisted
// lessons, so they are skipped. Reports whether lessons were appended.
func EnsureWeekLessons(student *models.Student, weekStart time.Time, weekStartDay int) bool {
	if student.PaymentType == models.PaymentTypeDaily {
		return false
	}
	if len(student.SelectedDays) == 0 {
		return false
	}
	if len(LessonsForWeek(*student, weekStart, weekStartDay)) > 0 {
		return false
	}
	student.Lessons = append(student.Lessons, GenerateLessonDates(weekStart, student.SelectedDays, weekStartDay)...)
	return true
}

// RegenerateWeekLessons drops the student's lessons for the given week and
// generates a fresh set from the selected days. Lessons in other weeks are
// untouched, so history survives a schedule change.
func RegenerateWeekLessons(student *models.Student, weekStart time.Time, weekStartDay int) {
	target := WeekStart(weekStart, weekStartDay)

	kept := make(models.LessonList, 0, len(student.Lessons))
	for _, lesson := range student.Lessons {
		if !WeekStart(lesson.Date, weekStartDay).Equal(target) {
			kept = append(kept, lesson)
		}
	}
	student.Lessons = append(kept, GenerateLessonDates(weekStart, student.SelectedDays, weekStartDay)...)
}

// PreviousWeek shifts a week start back by exactly seven days. No
// renormalization happens here; week start day changes are an explicit
// separate action.
func PreviousWeek(currentWeekStart time.Time) time.Time {
	return currentWeekStart.AddDate(0, 0, -7)
}

// NextWeek shifts a week start forward by exactly seven days.
func NextWeek(currentWeekStart time.Time) time.Time {
	return currentWeekStart.AddDate(0, 0, 7)
}

// WeekRange returns the first and last day of the week starting at weekStart.
func WeekRange(weekStart time.Time) (time.Time, time.Time) {
	return weekStart, weekStart.AddDate(0, 0, 6)
}

// sameCalendarDay reports whether two instants fall on the same calendar day
// when observed in b's location.
func sameCalendarDay(a, b time.Time) bool {
	a = a.In(b.Location())
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// StudentLesson is a lesson annotated with its owning student, used for the
// today and cancelled overviews. Virtual marks lessons synthesized on the fly
// for daily payment students rather than persisted ones.
type StudentLesson struct {
	models.Lesson
	StudentID   uint   `json:"student_id"`
	StudentName string `json:"student_name"`
	Virtual     bool   `json:"virtual,omitempty"`
}

// LessonQueryService answers cross-student lesson queries. The daily tracker
// is injected so virtual lessons for daily payment students can be
// synthesized; Now is injectable for tests.
type LessonQueryService struct {
	Daily *DailyPaymentService
	Now   func() time.Time
}

func NewLessonQueryService(daily *DailyPaymentService) *LessonQueryService {
	return &LessonQueryService{Daily: daily, Now: time.Now}
}

// TodaysLessons collects, across all students, the lessons happening today.
// Monthly students contribute persisted lessons dated today that belong to
// the current week; daily students contribute a single virtual lesson when
// today's weekday is in their scheduled set. Results are sorted ascending by
// time-of-day string.
func (s *LessonQueryService) TodaysLessons(students []models.Student, currentWeekStart time.Time, weekStartDay int) []StudentLesson {
	now := s.Now()
	target := WeekStart(currentWeekStart, weekStartDay)
	todayWeekday := int(now.Weekday())

	var todaysLessons []StudentLesson

	for _, student := range students {
		if student.PaymentType == models.PaymentTypeDaily {
			scheduled := s.Daily.ScheduledWeekdays(student.ID)
			if !containsWeekday(scheduled, todayWeekday) {
				continue
			}

			todaysLessons = append(todaysLessons, StudentLesson{
				Lesson: models.Lesson{
					ID:      fmt.Sprintf("daily-%d-%s", student.ID, now.Format("2006-01-02")),
					Date:    now,
					Time:    s.Daily.LessonTimeForDay(student.ID, todayWeekday),
					DayName: utils.DayNames[todayWeekday],
					Paid:    s.Daily.IsTodayPaid(student.ID),
				},
				StudentID:   student.ID,
				StudentName: student.Name,
				Virtual:     true,
			})
			continue
		}

		for _, lesson := range student.Lessons {
			if !sameCalendarDay(lesson.Date, now) {
				continue
			}
			if !WeekStart(lesson.Date, weekStartDay).Equal(target) {
				continue
			}
			todaysLessons = append(todaysLessons, StudentLesson{
				Lesson:      lesson,
				StudentID:   student.ID,
				StudentName: student.Name,
			})
		}
	}

	sort.SliceStable(todaysLessons, func(i, j int) bool {
		return todaysLessons[i].Time < todaysLessons[j].Time
	})

	return todaysLessons
}

// CancelledLessons collects all cancelled lessons across students.
func CancelledLessons(students []models.Student) []StudentLesson {
	var cancelled []StudentLesson
	for _, student := range students {
		for _, lesson := range student.Lessons {
			if lesson.Cancelled {
				cancelled = append(cancelled, StudentLesson{
					Lesson:      lesson,
					StudentID:   student.ID,
					StudentName: student.Name,
				})
			}
		}
	}
	return cancelled
}

func containsWeekday(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
