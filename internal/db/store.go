package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pysugar/post-scheduler/internal/db/models"
	"gorm.io/gorm"
)

// ErrNotScheduled is returned by ScheduledPost when the post does not exist
// or has already left the scheduled state.
var ErrNotScheduled = errors.New("post is not scheduled")

// Store is the record store shared by the services and the scheduler.
// Every call reads or writes through the database; nothing is cached.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an initialized database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// ListAccounts returns all accounts in store order.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// CreatePost inserts a new post. ScheduleAt is normalized to UTC so that
// the text encoding used by SQLite sorts and compares in time order.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	post.ScheduleAt = post.ScheduleAt.UTC()
	if post.PublishedAt != nil {
		at := post.PublishedAt.UTC()
		post.PublishedAt = &at
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// ListPosts returns every post ordered by schedule_at, latest first.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Order("schedule_at DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// DuePosts returns posts still scheduled whose schedule_at is at or before now.
func (s *Store) DuePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("status = ? AND schedule_at <= ?", string(models.StatusScheduled), now.UTC()).
		Order("schedule_at ASC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("query due posts: %w", err)
	}
	return posts, nil
}

// ScheduledPost re-reads a post and returns ErrNotScheduled unless it is
// still in the scheduled state.
func (s *Store) ScheduledPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(models.StatusScheduled)).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotScheduled
	}
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", id, err)
	}
	return &post, nil
}

// MarkPublished flips a scheduled post to published. The update is
// conditional on the current status, so it reports false when another
// writer already performed the transition.
func (s *Store) MarkPublished(ctx context.Context, id string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status = ?", id, string(models.StatusScheduled)).
		Updates(map[string]interface{}{
			"status":       string(models.StatusPublished),
			"published_at": at.UTC(),
			"last_error":   "",
		})
	if result.Error != nil {
		return false, fmt.Errorf("mark post %s published: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RecordFailure counts a failed publish attempt on a post that is still scheduled.
func (s *Store) RecordFailure(ctx context.Context, id string, reason string) error {
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status = ?", id, string(models.StatusScheduled)).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("record failure for post %s: %w", id, err)
	}
	return nil
}
