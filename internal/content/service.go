// Package content creates and lists posts.
package content

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pysugar/post-scheduler/internal/db/models"
	"github.com/pysugar/post-scheduler/internal/platforms"
	"github.com/pysugar/post-scheduler/internal/validation"
)

// Store is the part of the record store the content service needs.
type Store interface {
	CreatePost(ctx context.Context, post *models.Post) error
	ListPosts(ctx context.Context) ([]models.Post, error)
}

// CreateInput is a create-content request. Nil pointers mean the field was absent.
type CreateInput struct {
	Content    string
	MediaURL   string
	Platforms  *[]string
	ScheduleAt *string
}

// Layouts accepted for schedule_at, tried in order. Timestamps without a
// zone are taken as UTC.
var scheduleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the clock used for creation timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates the input and stores a new post. A post with a
// schedule_at starts as scheduled, even when that time is already past;
// without one it is published immediately and due now.
func (s *Service) Create(ctx context.Context, in CreateInput) (string, error) {
	post, err := s.build(in)
	if err != nil {
		return "", err
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return "", err
	}
	return post.ID, nil
}

// List returns every post, latest schedule_at first.
func (s *Service) List(ctx context.Context) ([]models.Post, error) {
	return s.store.ListPosts(ctx)
}

func (s *Service) build(in CreateInput) (*models.Post, error) {
	targets := []string{platforms.DefaultPlatform}
	if in.Platforms != nil {
		if len(*in.Platforms) == 0 {
			return nil, validation.Errorf("platforms", "at least one platform is required")
		}
		targets = make([]string, 0, len(*in.Platforms))
		for i, p := range *in.Platforms {
			if platforms.Normalize(p) == "" {
				return nil, validation.Errorf("platforms", "entry %d is empty", i)
			}
			targets = append(targets, p)
		}
	}

	if strings.TrimSpace(in.Content) == "" && strings.TrimSpace(in.MediaURL) == "" {
		return nil, validation.Errorf("content", "content or media_url is required")
	}

	now := s.now().UTC()
	post := &models.Post{
		ID:        uuid.New().String(),
		Content:   in.Content,
		MediaURL:  in.MediaURL,
		Platforms: targets,
	}

	if in.ScheduleAt != nil && strings.TrimSpace(*in.ScheduleAt) != "" {
		at, err := ParseScheduleAt(*in.ScheduleAt)
		if err != nil {
			return nil, err
		}
		post.ScheduleAt = at
		post.Status = models.StatusScheduled
	} else {
		post.ScheduleAt = now
		post.Status = models.StatusPublished
		post.PublishedAt = &now
	}
	return post, nil
}

// ParseScheduleAt parses an ISO 8601 timestamp into UTC.
func ParseScheduleAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, validation.Errorf("schedule_at", "%q is not an ISO 8601 timestamp", raw)
}
