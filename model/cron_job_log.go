package model

import "time"

// CronJobLog records one execution of a scheduled job (digest runs)
type CronJobLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	JobName    string     `gorm:"type:varchar(100);not null;index" json:"job_name"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Success    bool       `gorm:"default:false" json:"success"`
	Detail     string     `gorm:"type:text" json:"detail,omitempty"`
}
