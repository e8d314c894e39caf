package services

import (
	"fmt"

	"gorm.io/gorm"

	"tutortrack/config"
	"tutortrack/database"
	"tutortrack/middleware"
	"tutortrack/models"
	"tutortrack/services/websocket"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler runs the daily missed payment sweep. For every group it
// finds daily students whose scheduled lesson yesterday was not paid, creates
// a notification per miss and pushes it to subscribed clients.
type ReminderScheduler struct {
	db    *gorm.DB
	daily *DailyPaymentService
	hub   *websocket.Hub
	cron  *cron.Cron
}

func NewReminderScheduler(daily *DailyPaymentService, hub *websocket.Hub) *ReminderScheduler {
	return &ReminderScheduler{
		db:    database.DB,
		daily: daily,
		hub:   hub,
		cron:  cron.New(),
	}
}

// Start registers the cron entries and launches the scheduler. The spec comes
// from configuration; "@daily" fires at midnight.
func (rs *ReminderScheduler) Start() error {
	spec := config.AppConfig.ReminderCronSpec
	if _, err := rs.cron.AddFunc(spec, rs.RunMissedPaymentSweep); err != nil {
		return fmt.Errorf("failed to schedule missed payment sweep: %w", err)
	}
	if _, err := rs.cron.AddFunc("@hourly", func() {
		if err := middleware.FlushCachedLogs(); err != nil {
			logrus.WithError(err).Warn("Activity log flush failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule log flush: %w", err)
	}

	rs.cron.Start()
	logrus.WithField("spec", spec).Info("Reminder scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (rs *ReminderScheduler) Stop() {
	ctx := rs.cron.Stop()
	<-ctx.Done()
}

// RunMissedPaymentSweep walks every group and notifies about yesterday's
// unpaid daily lessons. Exported so an admin endpoint can trigger it on
// demand.
func (rs *ReminderScheduler) RunMissedPaymentSweep() {
	var groups []models.Group
	if err := rs.db.Find(&groups).Error; err != nil {
		logrus.WithError(err).Error("Missed payment sweep: failed to load groups")
		return
	}

	total := 0
	for _, group := range groups {
		total += rs.sweepGroup(group)
	}

	logrus.WithField("notifications", total).Info("Missed payment sweep finished")
}

func (rs *ReminderScheduler) sweepGroup(group models.Group) int {
	var students []models.Student
	if err := rs.db.Where("group_pin = ?", group.Pin).Find(&students).Error; err != nil {
		logrus.WithError(err).WithField("group_pin", group.Pin).Error("Missed payment sweep: failed to load students")
		return 0
	}

	missed := rs.daily.MissedPaymentStudents(students)
	for _, m := range missed {
		notification := models.Notification{
			GroupPin:  group.Pin,
			StudentID: m.Student.ID,
			Title:     "Missed payment",
			Message:   fmt.Sprintf("%s had a lesson on %s (%s) that was not paid", m.Student.Name, m.MissedDate, m.MissedDayName),
			Type:      "warning",
		}

		if err := rs.db.Create(&notification).Error; err != nil {
			logrus.WithError(err).WithField("student_id", m.Student.ID).Error("Failed to create missed payment notification")
			continue
		}

		rs.hub.BroadcastToGroup(group.Pin, websocket.EventNotification, notification)
	}

	return len(missed)
}
