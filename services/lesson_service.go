package services

import (
	"errors"

	"tutortrack/models"
	"tutortrack/utils"
)

// Lesson statuses
const (
	LessonStatusPending   = "pending"
	LessonStatusCompleted = "completed"
	LessonStatusCancelled = "cancelled"
)

var ErrLessonNotFound = errors.New("lesson not found")
var ErrInvalidLessonStatus = errors.New("invalid lesson status")

// LessonStatus derives the status label from a lesson's flags.
func LessonStatus(lesson models.Lesson) string {
	switch {
	case lesson.Cancelled:
		return LessonStatusCancelled
	case lesson.Completed:
		return LessonStatusCompleted
	default:
		return LessonStatusPending
	}
}

// ToggleCompletion flips the completed flag. Cancelled lessons cannot be
// completed via toggle; they must be restored first, so the call is a no-op.
func ToggleCompletion(lesson *models.Lesson) {
	if lesson.Cancelled {
		return
	}
	lesson.Completed = !lesson.Completed
}

// ToggleCancellation flips the cancelled flag and always clears completed,
// keeping the invariant that a lesson is never both completed and cancelled.
func ToggleCancellation(lesson *models.Lesson) {
	lesson.Cancelled = !lesson.Cancelled
	lesson.Completed = false
}

// SetStatus moves a lesson directly to the given status, clearing whichever
// of the two flags the target status does not carry.
func SetStatus(lesson *models.Lesson, status string) error {
	switch status {
	case LessonStatusPending:
		lesson.Completed = false
		lesson.Cancelled = false
	case LessonStatusCompleted:
		lesson.Completed = true
		lesson.Cancelled = false
	case LessonStatusCancelled:
		lesson.Completed = false
		lesson.Cancelled = true
	default:
		return ErrInvalidLessonStatus
	}
	return nil
}

// Restore returns a lesson to pending, clearing both flags.
func Restore(lesson *models.Lesson) {
	lesson.Completed = false
	lesson.Cancelled = false
}

// Reschedule currently restores the lesson without changing its date. A real
// date move needs a target-date input that the UI does not collect yet.
// TODO: accept a new date once the week picker exposes one.
func Reschedule(lesson *models.Lesson) {
	Restore(lesson)
}

// TogglePaid flips the per-lesson paid flag. Payment is orthogonal to the
// completed/cancelled state: a paid lesson stays paid when cancelled.
func TogglePaid(lesson *models.Lesson) {
	lesson.Paid = !lesson.Paid
}

// UpdateLessonTime sets the wall clock time of a lesson after validating the
// HH:MM format.
func UpdateLessonTime(lesson *models.Lesson, timeStr string) error {
	if !utils.IsValidTime(timeStr) {
		return errors.New("invalid time format, expected HH:MM")
	}
	lesson.Time = timeStr
	return nil
}

// FindLesson locates a lesson by id within a student's list and returns a
// pointer into the list, so callers can mutate it in place before persisting
// the whole list.
func FindLesson(student *models.Student, lessonID string) (*models.Lesson, error) {
	for idx := range student.Lessons {
		if student.Lessons[idx].ID == lessonID {
			return &student.Lessons[idx], nil
		}
	}
	return nil, ErrLessonNotFound
}

// NormalizeStudent applies the load-time migration for records written by
// older clients: missing payment type defaults to monthly, missing currency
// to TRY, lesson times and day names are filled in, and the weekly lesson
// count is recomputed from the selected days. Consumers can then rely on
// every field being present.
func NormalizeStudent(student *models.Student) {
	if student.PaymentType == "" {
		student.PaymentType = models.PaymentTypeMonthly
	}
	if student.Currency == "" {
		student.Currency = "TRY"
	}
	student.SelectedDays = utils.UniqueWeekdays(student.SelectedDays)
	student.WeeklyLessonCount = len(student.SelectedDays)

	for idx := range student.Lessons {
		lesson := &student.Lessons[idx]
		if lesson.Time == "" {
			lesson.Time = DefaultLessonTime
		}
		if lesson.DayName == "" {
			lesson.DayName = utils.DayNames[int(lesson.Date.Weekday())]
		}
		if lesson.Cancelled && lesson.Completed {
			lesson.Completed = false
		}
	}
}

// NormalizeStudents normalizes a whole snapshot in place.
func NormalizeStudents(students []models.Student) {
	for idx := range students {
		NormalizeStudent(&students[idx])
	}
}
