package models

import "time"

// PostStatus is the publication state of a Post.
// The only transition is StatusScheduled -> StatusPublished.
type PostStatus string

const (
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
)

// Post is a content item destined for one or more platforms.
type Post struct {
	ID          string     `gorm:"primaryKey" json:"id"` // UUID
	Content     string     `gorm:"type:text" json:"content"`
	MediaURL    string     `json:"media_url"`
	Platforms   []string   `gorm:"serializer:json" json:"platforms"`
	ScheduleAt  time.Time  `gorm:"index:idx_status_schedule,priority:2;not null" json:"schedule_at"`
	Status      PostStatus `gorm:"index:idx_status_schedule,priority:1;not null" json:"status"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsDue reports whether the post is still scheduled and its time has come.
func (p *Post) IsDue(now time.Time) bool {
	return p.Status == StatusScheduled && !p.ScheduleAt.After(now)
}
