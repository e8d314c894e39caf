package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"tutortrack/models"
	"tutortrack/storage"
	"tutortrack/utils"

	"github.com/sirupsen/logrus"
)

const (
	dailyPaymentsKeyPrefix = "daily_payments:"
	lessonTimesKeyPrefix   = "lesson_times:"
)

// dailyRecord is the per-student blob kept in the key-value store. PaidDates
// maps a YYYY-MM month key to the sorted list of YYYY-MM-DD dates paid in
// that month.
type dailyRecord struct {
	ScheduledWeekdays []int               `json:"scheduled_weekdays"`
	LastPaidDate      string              `json:"last_paid_date,omitempty"`
	PaidDates         map[string][]string `json:"paid_dates"`
}

// DailyPaymentService tracks per-lesson payments for daily-rate students in
// an injected key-value store, keyed by student id. All reads fail open to
// unpaid/empty so revenue is never overcounted; write errors are returned to
// the caller.
type DailyPaymentService struct {
	Store storage.KVStore
	Now   func() time.Time
}

func NewDailyPaymentService(store storage.KVStore) *DailyPaymentService {
	return &DailyPaymentService{Store: store, Now: time.Now}
}

func dailyPaymentsKey(studentID uint) string {
	return fmt.Sprintf("%s%d", dailyPaymentsKeyPrefix, studentID)
}

func lessonTimesKey(studentID uint) string {
	return fmt.Sprintf("%s%d", lessonTimesKeyPrefix, studentID)
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (s *DailyPaymentService) loadRecord(studentID uint) dailyRecord {
	record := dailyRecord{PaidDates: map[string][]string{}}

	data, err := s.Store.Get(context.Background(), dailyPaymentsKey(studentID))
	if err != nil {
		logrus.WithError(err).WithField("student_id", studentID).Warn("Failed to load daily payment record")
		return record
	}
	if data == nil {
		return record
	}
	if err := json.Unmarshal(data, &record); err != nil {
		logrus.WithError(err).WithField("student_id", studentID).Warn("Corrupt daily payment record, treating as empty")
		return dailyRecord{PaidDates: map[string][]string{}}
	}
	if record.PaidDates == nil {
		record.PaidDates = map[string][]string{}
	}
	return record
}

func (s *DailyPaymentService) saveRecord(studentID uint, record dailyRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.Store.Set(context.Background(), dailyPaymentsKey(studentID), data)
}

// PayToday marks today as paid. Paying twice in a day is a no-op with respect
// to list membership; the last paid date stamp is simply overwritten.
func (s *DailyPaymentService) PayToday(studentID uint) error {
	now := s.Now()
	today := dateKey(now)
	key := monthKey(now.Year(), int(now.Month()))

	record := s.loadRecord(studentID)
	if !containsString(record.PaidDates[key], today) {
		record.PaidDates[key] = append(record.PaidDates[key], today)
		sort.Strings(record.PaidDates[key])
	}
	record.LastPaidDate = today
	return s.saveRecord(studentID, record)
}

// UnpayToday removes today from the paid dates list and clears the last paid
// date stamp.
func (s *DailyPaymentService) UnpayToday(studentID uint) error {
	now := s.Now()
	today := dateKey(now)
	key := monthKey(now.Year(), int(now.Month()))

	record := s.loadRecord(studentID)
	record.PaidDates[key] = removeString(record.PaidDates[key], today)
	record.LastPaidDate = ""
	return s.saveRecord(studentID, record)
}

// IsTodayPaid reports whether the last paid date stamp is today.
func (s *DailyPaymentService) IsTodayPaid(studentID uint) bool {
	record := s.loadRecord(studentID)
	return record.LastPaidDate != "" && record.LastPaidDate == dateKey(s.Now())
}

// LastPaidDate returns the YYYY-MM-DD stamp of the most recent payment, or
// an empty string.
func (s *DailyPaymentService) LastPaidDate(studentID uint) string {
	return s.loadRecord(studentID).LastPaidDate
}

// SetScheduledWeekdays replaces the student's scheduled weekday set.
func (s *DailyPaymentService) SetScheduledWeekdays(studentID uint, weekdays []int) error {
	record := s.loadRecord(studentID)
	record.ScheduledWeekdays = utils.UniqueWeekdays(weekdays)
	return s.saveRecord(studentID, record)
}

// ScheduledWeekdays returns the student's scheduled weekday set.
func (s *DailyPaymentService) ScheduledWeekdays(studentID uint) []int {
	return s.loadRecord(studentID).ScheduledWeekdays
}

// SetLessonTimeForDay stores the lesson time for one weekday.
func (s *DailyPaymentService) SetLessonTimeForDay(studentID uint, weekday int, timeStr string) error {
	if !utils.IsValidWeekday(weekday) {
		return errors.New("invalid weekday, expected 0-6")
	}
	if !utils.IsValidTime(timeStr) {
		return errors.New("invalid time format, expected HH:MM")
	}

	times := s.loadLessonTimes(studentID)
	times[fmt.Sprintf("%d", weekday)] = timeStr

	data, err := json.Marshal(times)
	if err != nil {
		return err
	}
	return s.Store.Set(context.Background(), lessonTimesKey(studentID), data)
}

// LessonTimeForDay returns the configured lesson time for a weekday,
// defaulting to DefaultLessonTime.
func (s *DailyPaymentService) LessonTimeForDay(studentID uint, weekday int) string {
	times := s.loadLessonTimes(studentID)
	if t, ok := times[fmt.Sprintf("%d", weekday)]; ok && t != "" {
		return t
	}
	return DefaultLessonTime
}

// TodaysLessonTime returns the configured lesson time for today's weekday.
func (s *DailyPaymentService) TodaysLessonTime(studentID uint) string {
	return s.LessonTimeForDay(studentID, int(s.Now().Weekday()))
}

func (s *DailyPaymentService) loadLessonTimes(studentID uint) map[string]string {
	times := map[string]string{}
	data, err := s.Store.Get(context.Background(), lessonTimesKey(studentID))
	if err != nil {
		logrus.WithError(err).WithField("student_id", studentID).Warn("Failed to load lesson times")
		return times
	}
	if data == nil {
		return times
	}
	if err := json.Unmarshal(data, &times); err != nil {
		return map[string]string{}
	}
	return times
}

// ScheduledDatesInMonth lists every date in the given month whose weekday is
// in the student's scheduled set.
func (s *DailyPaymentService) ScheduledDatesInMonth(studentID uint, year, month int) []time.Time {
	scheduled := s.ScheduledWeekdays(studentID)
	if len(scheduled) == 0 {
		return nil
	}

	var dates []time.Time
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	for d := first; int(d.Month()) == month; d = d.AddDate(0, 0, 1) {
		if containsWeekday(scheduled, int(d.Weekday())) {
			dates = append(dates, d)
		}
	}
	return dates
}

// PaymentCounter reports paid/total/remaining lesson payments for the
// current month.
type PaymentCounter struct {
	Paid      int `json:"paid"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

func (s *DailyPaymentService) PaymentCounter(studentID uint) PaymentCounter {
	now := s.Now()
	scheduled := s.ScheduledDatesInMonth(studentID, now.Year(), int(now.Month()))

	record := s.loadRecord(studentID)
	paidDates := record.PaidDates[monthKey(now.Year(), int(now.Month()))]

	counter := PaymentCounter{
		Paid:  len(paidDates),
		Total: len(scheduled),
	}
	counter.Remaining = counter.Total - counter.Paid
	return counter
}

// MissedStudent flags a daily student whose scheduled lesson yesterday was
// not paid.
type MissedStudent struct {
	Student       models.Student `json:"student"`
	MissedDate    string         `json:"missed_date"`
	MissedDayName string         `json:"missed_day_name"`
}

// MissedPaymentStudents returns daily students who had a scheduled lesson
// yesterday but whose paid dates list for the current month lacks
// yesterday's date.
func (s *DailyPaymentService) MissedPaymentStudents(students []models.Student) []MissedStudent {
	yesterday := s.Now().AddDate(0, 0, -1)
	yesterdayStr := dateKey(yesterday)
	yesterdayWeekday := int(yesterday.Weekday())

	var missed []MissedStudent
	for _, student := range students {
		if student.PaymentType != models.PaymentTypeDaily {
			continue
		}
		record := s.loadRecord(student.ID)
		if !containsWeekday(record.ScheduledWeekdays, yesterdayWeekday) {
			continue
		}
		paidDates := record.PaidDates[monthKey(yesterday.Year(), int(yesterday.Month()))]
		if containsString(paidDates, yesterdayStr) {
			continue
		}
		missed = append(missed, MissedStudent{
			Student:       student,
			MissedDate:    yesterdayStr,
			MissedDayName: utils.DayNames[yesterdayWeekday],
		})
	}
	return missed
}

// TodaysPaymentStudents returns daily students with a lesson scheduled today.
func (s *DailyPaymentService) TodaysPaymentStudents(students []models.Student) []models.Student {
	todayWeekday := int(s.Now().Weekday())

	var due []models.Student
	for _, student := range students {
		if student.PaymentType != models.PaymentTypeDaily {
			continue
		}
		if containsWeekday(s.ScheduledWeekdays(student.ID), todayWeekday) {
			due = append(due, student)
		}
	}
	return due
}

// ClearStudent drops all daily payment data for a student, used when the
// student record is deleted.
func (s *DailyPaymentService) ClearStudent(studentID uint) error {
	ctx := context.Background()
	if err := s.Store.Delete(ctx, dailyPaymentsKey(studentID)); err != nil {
		return err
	}
	return s.Store.Delete(ctx, lessonTimesKey(studentID))
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func removeString(list []string, value string) []string {
	var out []string
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}
