package cron

import (
	"log"

	"github.com/eduoppbot/eduoppbot/services"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager schedules the digest jobs driven by notification cadence
type CronManager struct {
	cron          *cron.Cron
	db            *gorm.DB
	notifications *services.NotificationService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, notifications *services.NotificationService) *CronManager {
	// Seconds precision, matching the schedule specs below
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:          c,
		db:            db,
		notifications: notifications,
	}
}

// Start registers all jobs and starts the scheduler
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	// Daily digest at 09:00
	_, err := m.cron.AddFunc("0 0 9 * * *", func() {
		m.RunDailyDigest()
	})
	if err != nil {
		return err
	}

	// Weekly digest on Monday at 09:00
	_, err = m.cron.AddFunc("0 0 9 * * 1", func() {
		m.RunWeeklyDigest()
	})
	if err != nil {
		return err
	}

	return nil
}
