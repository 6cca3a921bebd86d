package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/post-scheduler/internal/accounts"
	"github.com/pysugar/post-scheduler/internal/auth/oauth"
	"github.com/pysugar/post-scheduler/internal/content"
	"github.com/pysugar/post-scheduler/internal/db"
	"github.com/pysugar/post-scheduler/internal/platforms"
	"github.com/pysugar/post-scheduler/internal/scheduler"
	"golang.org/x/oauth2"
	"gorm.io/gorm/logger"
)

func newHandlersTestStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := db.InitDB(filepath.Join(t.TempDir(), "handlers.db"), logger.Silent)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	return db.NewStore(database)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
}

func TestCreateContentHandler_RoundTripsThroughList(t *testing.T) {
	svc := content.NewService(newHandlersTestStore(t))

	rec := postJSON(t, CreateContentHandler(svc), "/content/create",
		`{"content":"launch day","media_url":"https://cdn.example.com/a.png","platforms":["twitter","linkedin"],"schedule_at":"2030-05-01T09:30:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	decodeBody(t, rec, &created)
	if created["status"] != "ok" || created["post_id"] == "" {
		t.Fatalf("unexpected create response: %v", created)
	}

	listRec := httptest.NewRecorder()
	ListContentHandler(svc).ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/content/list", nil))
	var posts []postView
	decodeBody(t, listRec, &posts)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	got := posts[0]
	if got.ID != created["post_id"] || got.Content != "launch day" || got.MediaURL != "https://cdn.example.com/a.png" {
		t.Fatalf("unexpected post: %+v", got)
	}
	if strings.Join(got.Platforms, ",") != "twitter,linkedin" {
		t.Fatalf("expected platforms preserved in order, got %v", got.Platforms)
	}
	if got.ScheduleAt != "2030-05-01T09:30:00Z" || got.Status != "scheduled" {
		t.Fatalf("expected scheduled at 2030-05-01T09:30:00Z, got %s %s", got.Status, got.ScheduleAt)
	}
}

func TestCreateContentHandler_DefaultsPlatformAndPublishesUnscheduled(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	svc := content.NewService(newHandlersTestStore(t)).WithClock(func() time.Time { return now })

	rec := postJSON(t, CreateContentHandler(svc), "/content/create", `{"content":"right now"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	listRec := httptest.NewRecorder()
	ListContentHandler(svc).ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/content/list", nil))
	var posts []postView
	decodeBody(t, listRec, &posts)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].Status != "published" {
		t.Fatalf("expected published, got %s", posts[0].Status)
	}
	if len(posts[0].Platforms) != 1 || posts[0].Platforms[0] != "instagram" {
		t.Fatalf("expected default platform, got %v", posts[0].Platforms)
	}
	if posts[0].ScheduleAt != "2025-03-04T05:06:07Z" {
		t.Fatalf("expected schedule_at = creation time, got %s", posts[0].ScheduleAt)
	}
}

func TestCreateContentHandler_RejectsInvalidInput(t *testing.T) {
	svc := content.NewService(newHandlersTestStore(t))

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "malformed json", body: `{"content":`, field: "body"},
		{name: "empty body", body: ``, field: "body"},
		{name: "platforms not a list", body: `{"content":"x","platforms":"twitter"}`, field: "platforms"},
		{name: "content not a string", body: `{"content":42}`, field: "content"},
		{name: "empty platforms", body: `{"content":"x","platforms":[]}`, field: "platforms"},
		{name: "bad schedule", body: `{"content":"x","schedule_at":"next tuesday"}`, field: "schedule_at"},
		{name: "nothing to post", body: `{"content":"  "}`, field: "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, CreateContentHandler(svc), "/content/create", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
			}
			var resp errorResponse
			decodeBody(t, rec, &resp)
			if resp.Field != tt.field {
				t.Fatalf("expected field %q, got %q (%s)", tt.field, resp.Field, resp.Error)
			}
		})
	}

	listRec := httptest.NewRecorder()
	ListContentHandler(svc).ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/content/list", nil))
	if strings.TrimSpace(listRec.Body.String()) != "[]" {
		t.Fatalf("expected no posts stored, got %s", listRec.Body.String())
	}
}

func newCallbackRouter(t *testing.T, flow *oauth.Flow, svc *accounts.Service) http.Handler {
	t.Helper()
	router := chi.NewRouter()
	router.Get("/accounts", AccountsHandler(svc))
	router.Get("/accounts/connect/{platform}", ConnectHandler(flow))
	router.Get("/oauth/callback/{platform}", CallbackHandler(flow, svc))
	return router
}

func TestCallbackHandler_RecordsTwitterAccount(t *testing.T) {
	svc := accounts.NewService(newHandlersTestStore(t), nil)
	router := newCallbackRouter(t, oauth.NewFlow(platforms.New(nil)), svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback/Twitter?code=abc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["status"] != "connected" || resp["platform"] != "twitter" || resp["account_id"] == "" {
		t.Fatalf("unexpected callback response: %v", resp)
	}

	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/accounts", nil))
	var list []accountView
	decodeBody(t, listRec, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 account, got %d", len(list))
	}
	acc := list[0]
	if acc.ID != resp["account_id"] || acc.Platform != "twitter" || acc.AccountName != "twitter_demo_account" {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if acc.Meta["demo_code"] != "abc" || acc.Meta["connected_at"] == "" {
		t.Fatalf("unexpected meta: %v", acc.Meta)
	}
	if strings.Contains(listRec.Body.String(), "demo_access_token") {
		t.Fatalf("tokens must not be listed: %s", listRec.Body.String())
	}
}

func TestCallbackHandler_Rejections(t *testing.T) {
	flow := oauth.NewFlow(platforms.New(nil))
	svc := accounts.NewService(newHandlersTestStore(t), nil)
	router := newCallbackRouter(t, flow, svc)

	tests := []struct {
		name  string
		path  string
		field string
	}{
		{name: "missing code", path: "/oauth/callback/twitter", field: "code"},
		{name: "forged state", path: "/oauth/callback/twitter?code=abc&state=forged", field: "state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
			}
			var resp errorResponse
			decodeBody(t, rec, &resp)
			if resp.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, resp.Field)
			}
		})
	}
}

type failingExchanger struct{}

func (failingExchanger) Exchange(context.Context, string, string) (*oauth2.Token, error) {
	return nil, errors.New("upstream unavailable")
}

func TestCallbackHandler_ExchangeFailureIsBadGateway(t *testing.T) {
	svc := accounts.NewService(newHandlersTestStore(t), failingExchanger{})
	router := newCallbackRouter(t, oauth.NewFlow(platforms.New(nil)), svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback/linkedin?code=abc", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestConnectHandler_RedirectsToCallbackWithPlaceholderCode(t *testing.T) {
	flow := oauth.NewFlow(platforms.New(nil))
	svc := accounts.NewService(newHandlersTestStore(t), nil)
	router := newCallbackRouter(t, flow, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/connect/linkedin", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "http://example.com/oauth/callback/linkedin?") {
		t.Fatalf("unexpected redirect: %s", loc)
	}
	if !strings.Contains(loc, "code="+oauth.PlaceholderCode) || !strings.Contains(loc, "state="+flow.State()) {
		t.Fatalf("expected placeholder code and state in %s", loc)
	}
}

type fakeSweeper struct {
	results []scheduler.Result
}

func (f fakeSweeper) Sweep(context.Context) ([]scheduler.Result, error) {
	return f.results, nil
}

func TestRunSchedulerHandler_ReportsResults(t *testing.T) {
	sweeper := fakeSweeper{results: []scheduler.Result{
		{PostID: "p1", Outcome: scheduler.OutcomePublished},
		{PostID: "p2", Outcome: scheduler.OutcomeFailed, Err: errors.New("twitter: boom")},
	}}

	rec := postJSON(t, RunSchedulerHandler(sweeper), "/scheduler/run", ``)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Status  string            `json:"status"`
		Results []sweepResultView `json:"results"`
	}
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" || len(resp.Results) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Results[0].Error != "" || resp.Results[1].Error != "twitter: boom" {
		t.Fatalf("unexpected errors: %+v", resp.Results)
	}
}

func TestRunSchedulerHandler_EmptySweepListsNoResults(t *testing.T) {
	rec := postJSON(t, RunSchedulerHandler(fakeSweeper{}), "/scheduler/run", ``)
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Fatalf("expected empty results array, got %s", rec.Body.String())
	}
}

func TestRunSchedulerHandler_StoreOutageIsServerError(t *testing.T) {
	store := newHandlersTestStore(t)
	sqlDB, err := store.DB().DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.Close()

	rec := postJSON(t, RunSchedulerHandler(scheduler.New(store, nil, scheduler.Options{})), "/scheduler/run", ``)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"results"`) {
		t.Fatalf("outage must not look like an empty sweep: %s", rec.Body.String())
	}
}
