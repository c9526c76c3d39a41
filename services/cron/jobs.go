package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/eduoppbot/eduoppbot/model"
)

// Digest runs get a generous deadline; the per-send timeout inside the
// dispatcher bounds individual platform calls.
const digestRunTimeout = 10 * time.Minute

// RunDailyDigest sends recommendation digests to users on daily cadence
func (m *CronManager) RunDailyDigest() {
	m.runDigest("daily_digest", model.FrequencyDaily)
}

// RunWeeklyDigest sends recommendation digests to users on weekly cadence
func (m *CronManager) RunWeeklyDigest() {
	m.runDigest("weekly_digest", model.FrequencyWeekly)
}

func (m *CronManager) runDigest(jobName string, frequency model.NotificationFrequency) {
	ctx, cancel := context.WithTimeout(context.Background(), digestRunTimeout)
	defer cancel()

	jobLog := m.logJobStart(jobName)

	reached, err := m.notifications.SendRecommendationDigest(ctx, frequency)
	if err != nil {
		log.Printf("Cron job %s failed: %v", jobName, err)
		m.logJobFinish(jobLog, false, err.Error())
		return
	}

	m.logJobFinish(jobLog, true, fmt.Sprintf("reached %d users", reached))
}

func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Printf("Running cron job: %s", jobName)

	jobLog := &model.CronJobLog{
		JobName:   jobName,
		StartedAt: time.Now(),
	}
	if err := m.db.Create(jobLog).Error; err != nil {
		log.Printf("Failed to record cron job start for %s: %v", jobName, err)
		return nil
	}
	return jobLog
}

func (m *CronManager) logJobFinish(jobLog *model.CronJobLog, success bool, detail string) {
	if jobLog == nil {
		return
	}

	now := time.Now()
	jobLog.FinishedAt = &now
	jobLog.Success = success
	jobLog.Detail = detail
	if err := m.db.Save(jobLog).Error; err != nil {
		log.Printf("Failed to record cron job finish for %s: %v", jobLog.JobName, err)
	}
}
