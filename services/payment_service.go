package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"tutortrack/models"
)

// weeksPerMonth approximates the number of lesson weeks in a calendar month
// for daily-rate fee projections. The imprecision is accepted; fees are
// rounded to whole lessons.
const weeksPerMonth = 4.33

// PaymentAmount is the projected charge for one student for one month.
type PaymentAmount struct {
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	CalculatedAmount float64 `json:"calculated_amount"`
	TotalLessons     int     `json:"total_lessons"`
	DisplayText      string  `json:"display_text"`
}

// CalculatePaymentAmount projects a student's monthly charge. Monthly
// students pay the flat fee; daily students pay per projected lesson
// occurrence.
func CalculatePaymentAmount(student models.Student) PaymentAmount {
	amountStr := strconv.FormatFloat(student.Amount, 'f', -1, 64)

	if student.PaymentType == models.PaymentTypeDaily {
		totalLessons := int(math.Round(float64(len(student.SelectedDays)) * weeksPerMonth))
		return PaymentAmount{
			Amount:           student.Amount,
			Currency:         student.Currency,
			CalculatedAmount: student.Amount * float64(totalLessons),
			TotalLessons:     totalLessons,
			DisplayText:      fmt.Sprintf("%s %s/lesson (%d lessons)", amountStr, student.Currency, totalLessons),
		}
	}

	return PaymentAmount{
		Amount:           student.Amount,
		Currency:         student.Currency,
		CalculatedAmount: student.Amount,
		TotalLessons:     len(student.SelectedDays),
		DisplayText:      fmt.Sprintf("%s %s/month", amountStr, student.Currency),
	}
}

// PaymentStatus is the unified per-student payment view for one month.
type PaymentStatus struct {
	StudentID        uint       `json:"student_id"`
	StudentName      string     `json:"student_name"`
	PaymentType      string     `json:"payment_type"`
	Amount           float64    `json:"amount"`
	Currency         string     `json:"currency"`
	CalculatedAmount float64    `json:"calculated_amount"`
	DisplayText      string     `json:"display_text"`
	LessonsPerWeek   int        `json:"lessons_per_week"`
	IsPaid           bool       `json:"is_paid"`
	PaidLessons      int        `json:"paid_lessons"`
	TotalLessons     int        `json:"total_lessons"`
	PaymentDate      *time.Time `json:"payment_date"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	MonthlyPaymentID uint       `json:"monthly_payment_id,omitempty"`
}

// findLedgerEntry looks up the ledger record for (student, month, year).
// Absence means unpaid, never unknown.
func findLedgerEntry(ledger []models.MonthlyPayment, studentID uint, month, year int) *models.MonthlyPayment {
	for idx := range ledger {
		entry := &ledger[idx]
		if entry.StudentID == studentID && entry.Month == month && entry.Year == year {
			return entry
		}
	}
	return nil
}

// lessonsInMonth partitions a student's lessons to those whose date falls in
// the given calendar month.
func lessonsInMonth(student models.Student, month, year int) []models.Lesson {
	var result []models.Lesson
	for _, lesson := range student.Lessons {
		if int(lesson.Date.Month()) == month && lesson.Date.Year() == year {
			result = append(result, lesson)
		}
	}
	return result
}

// CalculateStudentPaymentStatus derives whether a student has paid for the
// given month. Monthly students are paid iff their ledger entry says so;
// daily students are paid iff every lesson scheduled in the month carries the
// paid flag and at least one such lesson exists. A month with zero scheduled
// lessons is never reported as fully paid.
func CalculateStudentPaymentStatus(student models.Student, ledger []models.MonthlyPayment, month, year int) PaymentStatus {
	amount := CalculatePaymentAmount(student)

	status := PaymentStatus{
		StudentID:        student.ID,
		StudentName:      student.Name,
		PaymentType:      student.PaymentType,
		Amount:           amount.Amount,
		Currency:         amount.Currency,
		CalculatedAmount: amount.CalculatedAmount,
		DisplayText:      amount.DisplayText,
		LessonsPerWeek:   len(student.SelectedDays),
	}

	if student.PaymentType == models.PaymentTypeDaily {
		monthLessons := lessonsInMonth(student, month, year)
		paidLessons := 0
		for _, lesson := range monthLessons {
			if lesson.Paid {
				paidLessons++
			}
		}
		status.PaidLessons = paidLessons
		status.TotalLessons = len(monthLessons)
		status.IsPaid = len(monthLessons) > 0 && paidLessons == len(monthLessons)
		return status
	}

	status.TotalLessons = amount.TotalLessons
	if entry := findLedgerEntry(ledger, student.ID, month, year); entry != nil {
		status.IsPaid = entry.IsPaid
		status.PaymentDate = entry.PaymentDate
		status.PaymentMethod = entry.PaymentMethod
		status.Notes = entry.Notes
		status.MonthlyPaymentID = entry.ID
	}
	return status
}

// PaymentSummary aggregates payment statuses for a whole group.
type GroupPaymentSummary struct {
	TotalStudents        int             `json:"total_students"`
	PaidStudents         int             `json:"paid_students"`
	UnpaidStudents       int             `json:"unpaid_students"`
	TotalExpectedRevenue float64         `json:"total_expected_revenue"`
	TotalPaidRevenue     float64         `json:"total_paid_revenue"`
	TotalUnpaidRevenue   float64         `json:"total_unpaid_revenue"`
	PaymentRate          int             `json:"payment_rate"`
	Statuses             []PaymentStatus `json:"statuses"`
}

// PaymentSummary maps CalculateStudentPaymentStatus over all students and
// reduces counts and revenue. The rate is 0 for an empty group; division by
// zero is guarded.
func PaymentSummary(students []models.Student, ledger []models.MonthlyPayment, month, year int) GroupPaymentSummary {
	summary := GroupPaymentSummary{
		Statuses: make([]PaymentStatus, 0, len(students)),
	}

	for _, student := range students {
		status := CalculateStudentPaymentStatus(student, ledger, month, year)
		summary.Statuses = append(summary.Statuses, status)

		summary.TotalStudents++
		summary.TotalExpectedRevenue += status.CalculatedAmount
		if status.IsPaid {
			summary.PaidStudents++
			summary.TotalPaidRevenue += status.CalculatedAmount
		}
	}

	summary.UnpaidStudents = summary.TotalStudents - summary.PaidStudents
	summary.TotalUnpaidRevenue = summary.TotalExpectedRevenue - summary.TotalPaidRevenue
	if summary.TotalStudents > 0 {
		summary.PaymentRate = int(math.Round(float64(summary.PaidStudents) / float64(summary.TotalStudents) * 100))
	}
	return summary
}

// PaymentHistoryMonth is one month's slice of the ledger.
type PaymentHistoryMonth struct {
	Month         int                     `json:"month"`
	Year          int                     `json:"year"`
	Payments      []models.MonthlyPayment `json:"payments"`
	TotalPaid     float64                 `json:"total_paid"`
	TotalStudents int                     `json:"total_students"`
}

// PaymentHistory groups ledger entries by month, newest first.
func PaymentHistory(ledger []models.MonthlyPayment) []PaymentHistoryMonth {
	byMonth := make(map[string]*PaymentHistoryMonth)
	for _, entry := range ledger {
		key := fmt.Sprintf("%04d-%02d", entry.Year, entry.Month)
		bucket, ok := byMonth[key]
		if !ok {
			bucket = &PaymentHistoryMonth{Month: entry.Month, Year: entry.Year}
			byMonth[key] = bucket
		}
		bucket.Payments = append(bucket.Payments, entry)
		bucket.TotalStudents++
		if entry.IsPaid {
			bucket.TotalPaid += entry.MonthlyFee
		}
	}

	history := make([]PaymentHistoryMonth, 0, len(byMonth))
	for _, bucket := range byMonth {
		history = append(history, *bucket)
	}
	sort.Slice(history, func(i, j int) bool {
		if history[i].Year != history[j].Year {
			return history[i].Year > history[j].Year
		}
		return history[i].Month > history[j].Month
	})
	return history
}
