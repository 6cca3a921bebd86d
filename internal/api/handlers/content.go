package handlers

import (
	"net/http"
	"time"

	"github.com/pysugar/post-scheduler/internal/content"
	"github.com/pysugar/post-scheduler/internal/db/models"
	"github.com/pysugar/post-scheduler/internal/logging"
)

type createContentRequest struct {
	Content    string    `json:"content"`
	MediaURL   *string   `json:"media_url"`
	Platforms  *[]string `json:"platforms"`
	ScheduleAt *string   `json:"schedule_at"`
}

type postView struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	MediaURL   string   `json:"media_url"`
	Platforms  []string `json:"platforms"`
	ScheduleAt string   `json:"schedule_at"`
	Status     string   `json:"status"`
}

// CreateContentHandler stores a new post.
// POST /content/create
func CreateContentHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createContentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		in := content.CreateInput{
			Content:    req.Content,
			Platforms:  req.Platforms,
			ScheduleAt: req.ScheduleAt,
		}
		if req.MediaURL != nil {
			in.MediaURL = *req.MediaURL
		}

		id, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		logging.Printf(r.Context(), "📝 Created post %s", id)

		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"post_id": id,
		})
	}
}

// ListContentHandler lists posts, latest schedule_at first.
// GET /content/list
func ListContentHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := svc.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		views := make([]postView, 0, len(posts))
		for i := range posts {
			views = append(views, newPostView(&posts[i]))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func newPostView(p *models.Post) postView {
	targets := p.Platforms
	if targets == nil {
		targets = []string{}
	}
	return postView{
		ID:         p.ID,
		Content:    p.Content,
		MediaURL:   p.MediaURL,
		Platforms:  targets,
		ScheduleAt: p.ScheduleAt.UTC().Format(time.RFC3339Nano),
		Status:     string(p.Status),
	}
}
