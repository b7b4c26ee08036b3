package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"showroom/internal/config"
	"showroom/internal/http/handlers"
	applog "showroom/internal/log"
	"showroom/internal/ratelimit"
	"showroom/internal/repos"
)

type testApp struct {
	app  *fiber.App
	deps *handlers.Deps
	db   *sqlx.DB
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWith(t, nil)
}

func newTestAppWith(t *testing.T, limiter *ratelimit.Limiter) *testApp {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg := config.Config{JWTSecret: "test-secret", JWTIssuer: "showroom-test", WriteRetries: 5, SignupCredits: 100}
	deps := handlers.NewDeps(db, cfg, limiter)
	return &testApp{app: handlers.NewApp(deps, handlers.Options{}), deps: deps, db: db}
}

// bearer mints a token for a seeded user.
func (a *testApp) bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := a.deps.Tokens.Issue(userID, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}

func (a *testApp) do(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

type itemBody struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ViewCount int64  `json:"viewCount"`
	LikeCount int64  `json:"likeCount"`
	IsLiked   bool   `json:"isLiked"`
	IsViewed  bool   `json:"isViewed"`
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d body=%s", want, resp.StatusCode, string(b))
	}
}

type logEntry struct {
	Level  string `json:"level"`
	Kind   string `json:"kind"`
	Action string `json:"action"`
	UserID string `json:"user_id"`
	ReqID  string `json:"req_id"`
	Status int    `json:"status"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs points the process logger at a buffer while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	old := applog.L
	buf := &lockedBuf{}
	applog.Init("debug", "json", buf)
	defer func() { applog.L = old }()

	fn()

	var out []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("log line is not JSON: %q", line)
		}
		out = append(out, e)
	}
	return out
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
