package handlers

import (
	"context"
	"net/http"

	"github.com/pysugar/post-scheduler/internal/scheduler"
)

// Sweeper runs one scheduler pass.
type Sweeper interface {
	Sweep(ctx context.Context) ([]scheduler.Result, error)
}

type sweepResultView struct {
	PostID  string `json:"post_id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// RunSchedulerHandler runs a sweep now, alongside the background timer.
// POST /scheduler/run
func RunSchedulerHandler(sweeper Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := sweeper.Sweep(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		views := make([]sweepResultView, 0, len(results))
		for _, res := range results {
			v := sweepResultView{PostID: res.PostID, Outcome: string(res.Outcome)}
			if res.Err != nil {
				v.Error = res.Err.Error()
			}
			views = append(views, v)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"results": views,
		})
	}
}
