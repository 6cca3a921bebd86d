package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/post-scheduler/internal/accounts"
	"github.com/pysugar/post-scheduler/internal/auth/oauth"
	"github.com/pysugar/post-scheduler/internal/logging"
	"github.com/pysugar/post-scheduler/internal/platforms"
)

type accountView struct {
	ID          string            `json:"id"`
	Platform    string            `json:"platform"`
	AccountName string            `json:"account_name"`
	Meta        map[string]string `json:"meta"`
}

// AccountsHandler lists connected accounts.
// GET /accounts
func AccountsHandler(svc *accounts.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		views := make([]accountView, 0, len(list))
		for _, acc := range list {
			meta := acc.Meta
			if meta == nil {
				meta = map[string]string{}
			}
			views = append(views, accountView{
				ID:          acc.ID,
				Platform:    acc.Platform,
				AccountName: acc.AccountName,
				Meta:        meta,
			})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// ConnectHandler redirects to the platform consent page, or straight to
// the callback with a placeholder code.
// GET /accounts/connect/{platform}
func ConnectHandler(flow *oauth.Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := chi.URLParam(r, "platform")
		http.Redirect(w, r, flow.ConnectURL(r, platform), http.StatusFound)
	}
}

// CallbackHandler records the account for an authorization code.
// GET /oauth/callback/{platform}?code=...
func CallbackHandler(flow *oauth.Flow, svc *accounts.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := flow.VerifyState(r.URL.Query().Get("state")); err != nil {
			writeError(w, r, err)
			return
		}

		platform := platforms.Normalize(chi.URLParam(r, "platform"))
		id, err := svc.RecordConnection(r.Context(), platform, r.URL.Query().Get("code"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		logging.Printf(r.Context(), "🔗 Connected %s account %s", platform, id)

		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "connected",
			"platform":   platform,
			"account_id": id,
		})
	}
}
