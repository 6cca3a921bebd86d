package publisher

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pysugar/post-scheduler/internal/db/models"
	"github.com/pysugar/post-scheduler/internal/platforms"
	"github.com/pysugar/post-scheduler/internal/util"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Poster publishes a post to one platform.
type Poster interface {
	Post(ctx context.Context, platform string, post *models.Post) error
}

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(ctx context.Context, platform string, post *models.Post) error

func (f PosterFunc) Post(ctx context.Context, platform string, post *models.Post) error {
	return f(ctx, platform, post)
}

// LogPoster logs the publish and always succeeds.
var LogPoster = PosterFunc(func(_ context.Context, platform string, post *models.Post) error {
	log.Printf("📤 [%s] Publishing %s: %q", platform, post.ID, util.TruncateContent(post.Content))
	return nil
})

// Fanout publishes a post to each of its platforms through a per-platform
// Poster. Each platform has its own circuit breaker, and a rate limiter
// when the catalog declares rate_per_minute.
type Fanout struct {
	catalog  *platforms.Catalog
	fallback Poster

	mu       sync.Mutex
	posters  map[string]Poster
	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*rate.Limiter
}

// NewFanout creates a Fanout; platforms without a registered Poster use fallback.
func NewFanout(catalog *platforms.Catalog, fallback Poster) *Fanout {
	if fallback == nil {
		fallback = LogPoster
	}
	return &Fanout{
		catalog:  catalog,
		fallback: fallback,
		posters:  make(map[string]Poster),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Register installs the Poster for a platform.
func (f *Fanout) Register(platform string, p Poster) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posters[platforms.Normalize(platform)] = p
}

// Publish posts to every platform of post in order and collects per-platform results.
func (f *Fanout) Publish(ctx context.Context, post *models.Post) Result {
	res := Result{PostID: post.ID, Platforms: make([]PlatformResult, 0, len(post.Platforms))}
	for _, platform := range post.Platforms {
		res.Platforms = append(res.Platforms, PlatformResult{
			Platform: platform,
			Err:      f.publishOne(ctx, platform, post),
		})
	}
	return res
}

func (f *Fanout) publishOne(ctx context.Context, platform string, post *models.Post) error {
	poster, breaker, limiter := f.route(platforms.Normalize(platform))

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	_, err := breaker.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, poster.Post(ctx, platform, post)
	})
	return err
}

func (f *Fanout) route(platform string) (Poster, *gobreaker.CircuitBreaker, *rate.Limiter) {
	f.mu.Lock()
	defer f.mu.Unlock()

	poster, ok := f.posters[platform]
	if !ok {
		poster = f.fallback
	}

	breaker, ok := f.breakers[platform]
	if !ok {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "publish:" + platform,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Printf("⚡ Circuit breaker %s: %s -> %s", name, from, to)
			},
		})
		f.breakers[platform] = breaker
	}

	limiter, ok := f.limiters[platform]
	if !ok {
		if p, found := f.lookup(platform); found && p.RatePerMinute > 0 {
			burst := p.RatePerMinute / 10
			if burst < 1 {
				burst = 1
			}
			limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(p.RatePerMinute)), burst)
		}
		f.limiters[platform] = limiter
	}
	return poster, breaker, limiter
}

func (f *Fanout) lookup(platform string) (platforms.Platform, bool) {
	if f.catalog == nil {
		return platforms.Platform{}, false
	}
	return f.catalog.Lookup(platform)
}
