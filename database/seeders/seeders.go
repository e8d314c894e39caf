package seeders

import (
	"log"
	"time"

	"tutortrack/database"
	"tutortrack/models"
	"tutortrack/services"
)

// DemoPin is the fixed pin of the seeded demo group so it can be joined
// without looking it up.
const DemoPin = "111111"

// SeedAll populates a demo group with a few students for local development.
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedDemoGroup()

	log.Println("Database seeding completed successfully!")
}

// SeedDemoGroup creates one group with a monthly and a daily student. Safe to
// call repeatedly; it skips when the demo group already exists.
func SeedDemoGroup() {
	var count int64
	database.DB.Model(&models.Group{}).Where("pin = ?", DemoPin).Count(&count)
	if count > 0 {
		log.Println("Demo group already seeded, skipping...")
		return
	}

	weekStartDay := 1
	weekStart := services.WeekStart(time.Now(), weekStartDay)

	group := models.Group{
		Pin:              DemoPin,
		WeekStartDay:     weekStartDay,
		CurrentWeekStart: weekStart,
	}
	if err := database.DB.Create(&group).Error; err != nil {
		log.Printf("Error seeding demo group: %v", err)
		return
	}

	students := []models.Student{
		{
			GroupPin:          group.Pin,
			Name:              "Ayşe",
			SelectedDays:      models.IntSlice{1, 3},
			WeeklyLessonCount: 2,
			PaymentType:       models.PaymentTypeMonthly,
			Amount:            1500,
			Currency:          "TRY",
			Lessons:           services.GenerateLessonDates(weekStart, []int{1, 3}, weekStartDay),
		},
		{
			GroupPin:          group.Pin,
			Name:              "Ivan",
			SelectedDays:      models.IntSlice{2, 4},
			WeeklyLessonCount: 2,
			PaymentType:       models.PaymentTypeDaily,
			Amount:            40,
			Currency:          "USD",
		},
	}

	for idx := range students {
		if err := database.DB.Create(&students[idx]).Error; err != nil {
			log.Printf("Error seeding demo student %q: %v", students[idx].Name, err)
		}
	}

	log.Printf("Seeded demo group %s with %d students", DemoPin, len(students))
}
