package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Payment types
const (
	PaymentTypeMonthly = "monthly"
	PaymentTypeDaily   = "daily"
)

// Payment methods for the monthly ledger
const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCreditCard   = "credit_card"
	PaymentMethodOther        = "other"
)

// Supported currencies
var Currencies = []string{"TRY", "RUB", "AZN", "USD"}

// IntSlice stores a set of weekday integers as a JSON column.
type IntSlice []int

func (s IntSlice) Value() (driver.Value, error) {
	data, err := json.Marshal([]int(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *IntSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for IntSlice: %T", value)
	}
	return json.Unmarshal(data, s)
}

// Lesson is a single calendar occurrence of a recurring weekday slot. Lessons
// are embedded in the owning student's lesson list and replaced as a whole on
// update (last write wins, as the backing store resolves concurrent edits).
type Lesson struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	DayName   string    `json:"day_name"`
	Completed bool      `json:"completed"`
	Cancelled bool      `json:"cancelled"`
	Paid      bool      `json:"paid"`
}

// LessonList stores the embedded lessons as a JSON column.
type LessonList []Lesson

func (l LessonList) Value() (driver.Value, error) {
	if l == nil {
		l = LessonList{}
	}
	data, err := json.Marshal([]Lesson(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *LessonList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for LessonList: %T", value)
	}
	return json.Unmarshal(data, l)
}

// Group model. The six digit pin doubles as the shareable join code.
type Group struct {
	BaseModel
	Pin              string    `json:"pin" gorm:"size:6;not null;uniqueIndex"`
	WeekStartDay     int       `json:"week_start_day" gorm:"not null;default:1"` // 0=Sunday..6=Saturday
	CurrentWeekStart time.Time `json:"current_week_start" gorm:"not null"`

	// Relationships
	Students []Student `json:"students,omitempty" gorm:"foreignKey:GroupPin;references:Pin"`
}

// Student model. Lessons are embedded so a student record travels as one
// document, mirroring the store's whole-array replacement semantics.
type Student struct {
	BaseModel
	GroupPin          string     `json:"group_pin" gorm:"size:6;not null;index"`
	Name              string     `json:"name" gorm:"size:255;not null"`
	SelectedDays      IntSlice   `json:"selected_days" gorm:"type:json"`
	WeeklyLessonCount int        `json:"weekly_lesson_count"`
	PaymentType       string     `json:"payment_type" gorm:"size:20;not null;default:'monthly';type:enum('monthly','daily')"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency" gorm:"size:10;not null;default:'TRY';type:enum('TRY','RUB','AZN','USD')"`
	Lessons           LessonList `json:"lessons" gorm:"type:json"`
}

// MonthlyPayment is the ledger entry for one student's flat monthly fee.
// At most one active record per (group, student, month, year); DocID carries
// the composite key.
type MonthlyPayment struct {
	BaseModel
	DocID         string     `json:"doc_id" gorm:"size:100;not null;uniqueIndex"`
	GroupPin      string     `json:"group_pin" gorm:"size:6;not null;index"`
	StudentID     uint       `json:"student_id" gorm:"not null;index"`
	Month         int        `json:"month" gorm:"not null"`
	Year          int        `json:"year" gorm:"not null"`
	IsPaid        bool       `json:"is_paid" gorm:"default:false"`
	PaymentDate   *time.Time `json:"payment_date"`
	PaymentMethod string     `json:"payment_method" gorm:"size:50;type:enum('cash','bank_transfer','credit_card','other')"`
	Notes         string     `json:"notes" gorm:"type:text"`
	MonthlyFee    float64    `json:"monthly_fee"`
}

// MonthlyPaymentDocID builds the composite ledger key.
func MonthlyPaymentDocID(groupPin string, studentID uint, month, year int) string {
	return fmt.Sprintf("%s_%d_%d_%d", groupPin, studentID, year, month)
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	GroupPin   string `json:"group_pin" gorm:"size:6;index"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`
}

// Notification model. Used for missed payment reminders per group.
type Notification struct {
	BaseModel
	GroupPin  string     `json:"group_pin" gorm:"size:6;not null;index"`
	Title     string     `json:"title" gorm:"size:255;not null"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	Type      string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"`
	Read      bool       `json:"read" gorm:"default:false"`
	ReadAt    *time.Time `json:"read_at"`
	StudentID uint       `json:"student_id"`
}
