package route

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"content-tracker/internal/api/http/handler"
	"content-tracker/internal/apperrors"
	"content-tracker/internal/config"
	"content-tracker/internal/model"
	"content-tracker/pkg/jwt"
)

type fakeHealth struct {
	ready bool
}

func (f fakeHealth) Ready(context.Context) (map[string]string, bool) {
	if f.ready {
		return map[string]string{"postgres": "ok"}, true
	}

	return map[string]string{"postgres": "connection refused"}, false
}

type fakeSweeper struct {
	err  error
	last *model.SweepResult
}

func (f *fakeSweeper) TriggerNow(context.Context) (model.SweepResult, error) {
	if f.err != nil {
		return model.SweepResult{}, f.err
	}

	res := model.SweepResult{AccountsScanned: 1, EventsPublished: 1}
	f.last = &res

	return res, nil
}

func (f *fakeSweeper) LastResult() (*model.SweepResult, error) {
	return f.last, nil
}

type fakeSearcher struct {
	gotSize int
}

func (f *fakeSearcher) Search(_ context.Context, _, _ string, size int) ([]model.ContentSearchHit, error) {
	f.gotSize = size
	return []model.ContentSearchHit{{Content: model.DiscoveredContent{PlatformID: "999"}}}, nil
}

type testEnv struct {
	key      *ecdsa.PrivateKey
	sweeper  *fakeSweeper
	searcher *fakeSearcher
	router   http.Handler
}

func newTestEnv(t *testing.T, ready bool) *testEnv {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	cfg := &config.Config{}
	cfg.HTTPServer.BasePath = "/api"
	cfg.HTTPServer.Timeout.Request = 5 * time.Second

	log := zaptest.NewLogger(t)
	sw := &fakeSweeper{}
	se := &fakeSearcher{}

	router := SetupRouter(log, cfg, &key.PublicKey,
		handler.NewHealthHandler(log, fakeHealth{ready: ready}),
		handler.NewOpsHandler(log, sw, se, nil),
	)

	return &testEnv{key: key, sweeper: sw, searcher: se, router: router}
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()

	tok, err := jwt.NewToken(e.key, time.Minute,
		jwt.WithClaim(model.OperatorIDKey, "alice"),
		jwt.WithClaim(model.OperatorRoleKey, role),
	)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return tok
}

func (e *testEnv) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t, true)

	if rec := env.do(http.MethodGet, "/api/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("ping: %d", rec.Code)
	}

	if rec := env.do(http.MethodGet, "/api/health/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready: %d", rec.Code)
	}

	down := newTestEnv(t, false)

	rec := down.do(http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready while down: %d", rec.Code)
	}

	var body handler.ResponseWithData
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if report, _ := body.Data.(map[string]any); report["postgres"] != "connection refused" {
		t.Fatalf("unexpected report: %v", body.Data)
	}
}

func TestOpsRequiresOperatorToken(t *testing.T) {
	env := newTestEnv(t, true)

	if rec := env.do(http.MethodPost, "/api/ops/sweep", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}

	if rec := env.do(http.MethodPost, "/api/ops/sweep", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}

	if rec := env.do(http.MethodPost, "/api/ops/sweep", env.token(t, "viewer")); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong role: %d", rec.Code)
	}
}

func TestOpsSweep(t *testing.T) {
	env := newTestEnv(t, true)
	tok := env.token(t, model.RoleOperator)

	if rec := env.do(http.MethodGet, "/api/ops/sweep/last", tok); rec.Code != http.StatusNotFound {
		t.Fatalf("last before sweep: %d", rec.Code)
	}

	rec := env.do(http.MethodPost, "/api/ops/sweep", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep: %d %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(http.MethodGet, "/api/ops/sweep/last", tok); rec.Code != http.StatusOK {
		t.Fatalf("last after sweep: %d", rec.Code)
	}

	env.sweeper.err = apperrors.ErrSweepInProgress

	if rec := env.do(http.MethodPost, "/api/ops/sweep", tok); rec.Code != http.StatusConflict {
		t.Fatalf("busy sweep: %d", rec.Code)
	}
}

func TestOpsSearchAndStream(t *testing.T) {
	env := newTestEnv(t, true)
	tok := env.token(t, model.RoleOperator)

	if rec := env.do(http.MethodGet, "/api/ops/content/search", tok); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing query: %d", rec.Code)
	}

	if rec := env.do(http.MethodGet, "/api/ops/content/search?q=video&size=500", tok); rec.Code != http.StatusOK {
		t.Fatalf("search: %d", rec.Code)
	}

	if env.searcher.gotSize != 100 {
		t.Errorf("size = %d, want capped 100", env.searcher.gotSize)
	}

	if rec := env.do(http.MethodGet, "/api/ops/stream", tok); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("stream without hub: %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, true)

	if rec := env.do(http.MethodGet, "/api/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", rec.Code)
	}

	if rec := env.do(http.MethodDelete, "/api/health", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: %d", rec.Code)
	}
}
