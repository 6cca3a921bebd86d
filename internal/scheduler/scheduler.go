// Package scheduler runs the recurring sweep that publishes due posts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pysugar/post-scheduler/internal/db"
	"github.com/pysugar/post-scheduler/internal/db/models"
	"github.com/pysugar/post-scheduler/internal/publisher"
)

// DefaultInterval is the time between two sweeps.
const DefaultInterval = 30 * time.Second

// recordTimeout bounds the store writes made after a publish attempt.
const recordTimeout = 10 * time.Second

// Store is the part of the record store the scheduler needs.
type Store interface {
	DuePosts(ctx context.Context, now time.Time) ([]models.Post, error)
	ScheduledPost(ctx context.Context, id string) (*models.Post, error)
	MarkPublished(ctx context.Context, id string, at time.Time) (bool, error)
	RecordFailure(ctx context.Context, id string, reason string) error
}

// Outcome of processing one due post during a sweep.
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Result reports what a sweep did with one due post.
type Result struct {
	PostID  string
	Outcome Outcome
	Err     error
}

type Options struct {
	// Interval between sweeps; DefaultInterval when zero.
	Interval time.Duration
	// PublishTimeout bounds a single Publisher call; zero means unbounded.
	PublishTimeout time.Duration
	// Clock returns the current time; time.Now when nil.
	Clock func() time.Time
}

// Scheduler periodically moves due posts from scheduled to published.
// It keeps no state across sweeps other than the set of posts currently
// being processed, which guards against overlapping sweeps.
type Scheduler struct {
	store     Store
	publisher publisher.Publisher
	opts      Options

	claimMu sync.Mutex
	claims  map[string]struct{}

	lifeMu  sync.Mutex
	cron    *gocron.Scheduler
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	running sync.WaitGroup
}

// New creates a scheduler. A nil publisher falls back to publisher.Log.
func New(store Store, pub publisher.Publisher, opts Options) *Scheduler {
	if pub == nil {
		pub = publisher.Log{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Scheduler{
		store:     store,
		publisher: pub,
		opts:      opts,
		claims:    make(map[string]struct{}),
	}
}

// Start schedules the sweep on a recurring timer. The first sweep runs immediately.
func (s *Scheduler) Start() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.stopped = false

	cron := gocron.NewScheduler(time.UTC)
	if _, err := cron.Every(s.opts.Interval).SingletonMode().Do(s.tick); err != nil {
		s.cancel()
		return fmt.Errorf("schedule sweep: %w", err)
	}
	cron.StartAsync()
	s.cron = cron

	log.Printf("🔄 Publish scheduler started (interval: %s)", s.opts.Interval)
	return nil
}

// Stop cancels the timer and any in-flight sweep and waits for it to return.
func (s *Scheduler) Stop() {
	s.lifeMu.Lock()
	if s.cron == nil || s.stopped {
		s.lifeMu.Unlock()
		return
	}
	s.stopped = true
	cron, cancel := s.cron, s.cancel
	s.cron = nil
	s.lifeMu.Unlock()

	cron.Stop()
	cancel()
	s.running.Wait()
	log.Println("🛑 Publish scheduler stopped")
}

func (s *Scheduler) tick() {
	s.lifeMu.Lock()
	if s.stopped || s.ctx == nil {
		s.lifeMu.Unlock()
		return
	}
	ctx := s.ctx
	s.running.Add(1)
	s.lifeMu.Unlock()
	defer s.running.Done()

	results, err := s.Sweep(ctx)
	if err != nil {
		log.Printf("❌ Sweep aborted: %v", err)
		return
	}
	if len(results) == 0 {
		return
	}
	counts := make(map[Outcome]int)
	for _, r := range results {
		counts[r.Outcome]++
	}
	log.Printf("📬 Sweep done: %d due, %d published, %d partial, %d failed, %d skipped",
		len(results), counts[OutcomePublished], counts[OutcomePartial], counts[OutcomeFailed], counts[OutcomeSkipped])
}

// Sweep runs one pass: it loads the due set and processes each post
// independently. A failure on one post never stops the others. A store
// error while loading the due set aborts the pass and is returned.
func (s *Scheduler) Sweep(ctx context.Context) ([]Result, error) {
	now := s.opts.Clock().UTC()

	due, err := s.store.DuePosts(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("load due posts: %w", err)
	}

	results := make([]Result, 0, len(due))
	for i := range due {
		results = append(results, s.process(ctx, due[i].ID, now))
	}
	return results, nil
}

func (s *Scheduler) process(ctx context.Context, id string, now time.Time) (res Result) {
	res = Result{PostID: id}

	if !s.claim(id) {
		res.Outcome = OutcomeSkipped
		return res
	}
	release := true
	defer func() {
		if release {
			s.release(id)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic while publishing %s: %v", id, r)
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	// Re-read under the claim: a sweep that finished just before this one
	// claimed the post may already have published it.
	post, err := s.store.ScheduledPost(ctx, id)
	if errors.Is(err, db.ErrNotScheduled) {
		res.Outcome = OutcomeSkipped
		return res
	}
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
		log.Printf("⚠️ Failed to load post %s: %v", id, err)
		return res
	}
	if !post.IsDue(now) {
		res.Outcome = OutcomeSkipped
		return res
	}

	pubResult, timedOut := s.publish(ctx, post)
	if timedOut {
		// The publisher still owns the post; it is released when the call returns.
		release = false
	}

	// The publish already happened; its outcome is recorded even when the
	// sweep is canceled meanwhile, or the next sweep would publish again.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	switch pubResult.Outcome() {
	case publisher.OutcomeSuccess:
		flipped, err := s.store.MarkPublished(recordCtx, id, s.opts.Clock())
		switch {
		case err != nil:
			res.Outcome, res.Err = OutcomeFailed, err
			log.Printf("⚠️ Published %s but failed to record it: %v", id, err)
		case !flipped:
			res.Outcome = OutcomeSkipped
		default:
			res.Outcome = OutcomePublished
			log.Printf("✅ Published %s to %v", id, post.Platforms)
		}
	default:
		res.Err = pubResult.Err()
		res.Outcome = OutcomeFailed
		if pubResult.Outcome() == publisher.OutcomePartial {
			res.Outcome = OutcomePartial
		}
		if err := s.store.RecordFailure(recordCtx, id, res.Err.Error()); err != nil {
			log.Printf("⚠️ Failed to record publish failure for %s: %v", id, err)
		}
		log.Printf("⏳ Publish %s for %s, will retry next sweep: %v", res.Outcome, id, res.Err)
	}
	return res
}

// publish invokes the publisher, bounded by PublishTimeout when set.
// timedOut reports that the call was abandoned while still running.
func (s *Scheduler) publish(ctx context.Context, post *models.Post) (res publisher.Result, timedOut bool) {
	if s.opts.PublishTimeout <= 0 {
		return s.publisher.Publish(ctx, post), false
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.opts.PublishTimeout)
	done := make(chan publisher.Result, 1)
	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				done <- failedResult(post, fmt.Errorf("panic: %v", r))
			}
		}()
		done <- s.publisher.Publish(pubCtx, post)
	}()

	select {
	case res := <-done:
		return res, false
	case <-pubCtx.Done():
		select {
		case res := <-done:
			return res, false
		default:
		}
		go func() {
			late := <-done
			if late.Outcome() == publisher.OutcomeSuccess {
				s.recordLateSuccess(ctx, post.ID)
			}
			s.release(post.ID)
		}()
		return failedResult(post, fmt.Errorf("publish timed out: %w", pubCtx.Err())), true
	}
}

// recordLateSuccess flips a post whose publisher finished after the sweep
// gave up on it. It runs before the claim is released.
func (s *Scheduler) recordLateSuccess(ctx context.Context, id string) {
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	flipped, err := s.store.MarkPublished(recordCtx, id, s.opts.Clock())
	switch {
	case err != nil:
		log.Printf("⚠️ Late publish of %s succeeded but failed to record it: %v", id, err)
	case flipped:
		log.Printf("✅ Published %s after the sweep timed out", id)
	}
}

func failedResult(post *models.Post, err error) publisher.Result {
	res := publisher.Result{PostID: post.ID}
	for _, p := range post.Platforms {
		res.Platforms = append(res.Platforms, publisher.PlatformResult{Platform: p, Err: err})
	}
	if len(res.Platforms) == 0 {
		res.Platforms = []publisher.PlatformResult{{Err: err}}
	}
	return res
}

func (s *Scheduler) claim(id string) bool {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()
	if _, busy := s.claims[id]; busy {
		return false
	}
	s.claims[id] = struct{}{}
	return true
}

func (s *Scheduler) release(id string) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()
	delete(s.claims, id)
}
