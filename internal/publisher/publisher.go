// Package publisher performs the platform-side publish of a post.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pysugar/post-scheduler/internal/db/models"
	"github.com/pysugar/post-scheduler/internal/util"
)

// Outcome summarizes a publish across all platforms of a post.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// PlatformResult is the result of publishing to a single platform.
type PlatformResult struct {
	Platform string
	Err      error
}

// Result is returned by a Publisher for one post.
type Result struct {
	PostID    string
	Platforms []PlatformResult
}

// Outcome is success when every platform succeeded, failure when none did
// and partial otherwise. A post without platforms counts as success.
func (r Result) Outcome() Outcome {
	failed := 0
	for _, p := range r.Platforms {
		if p.Err != nil {
			failed++
		}
	}
	switch {
	case failed == 0:
		return OutcomeSuccess
	case failed == len(r.Platforms):
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}

// Err joins the per-platform errors, or returns nil on success.
func (r Result) Err() error {
	var errs []error
	for _, p := range r.Platforms {
		if p.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Platform, p.Err))
		}
	}
	return errors.Join(errs...)
}

// Succeeded builds a successful result for every platform of post.
func Succeeded(post *models.Post) Result {
	res := Result{PostID: post.ID, Platforms: make([]PlatformResult, 0, len(post.Platforms))}
	for _, p := range post.Platforms {
		res.Platforms = append(res.Platforms, PlatformResult{Platform: p})
	}
	return res
}

// Publisher publishes a post to its platforms. Implementations report
// failures through the Result instead of panicking or aborting.
type Publisher interface {
	Publish(ctx context.Context, post *models.Post) Result
}

// Func adapts a function to the Publisher interface.
type Func func(ctx context.Context, post *models.Post) Result

func (f Func) Publish(ctx context.Context, post *models.Post) Result {
	return f(ctx, post)
}

// Log is the no-op publisher: it only logs and never fails.
type Log struct{}

func (Log) Publish(_ context.Context, post *models.Post) Result {
	log.Printf("📤 Publishing %s to %v: %q", post.ID, post.Platforms, util.TruncateContent(post.Content))
	return Succeeded(post)
}
