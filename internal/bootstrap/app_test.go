package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"nutrition-backend/internal/queue"
	"nutrition-backend/internal/shared/config"
	"nutrition-backend/internal/shared/telemetry"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	telemetry.SetOutput(io.Discard)
	t.Setenv("JWT_SECRET", "test-secret")
	return config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		CORSAllowOrigin: []string{"http://localhost:8081"},
	}
}

func call(app *App, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.DB != nil || app.Catalog == nil {
		t.Fatalf("expected memory storage and embedded catalog")
	}
	if resp := call(app, http.MethodGet, "/api/v1/health", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("health: %d %s", resp.Code, resp.Body.String())
	}
	if resp := call(app, http.MethodGet, "/metrics", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("metrics: %d", resp.Code)
	}
	if resp := call(app, http.MethodGet, "/api/v1/recommendations", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}

	guest := map[string]string{"X-Guest-Id": "g1"}
	resp := call(app, http.MethodGet, "/api/v1/recommendations", "", guest)
	if resp.Code != http.StatusOK {
		t.Fatalf("recommendations: %d %s", resp.Code, resp.Body.String())
	}
	var rec struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &rec); err != nil || len(rec.Items) == 0 {
		t.Fatalf("expected recommendations, got %s", resp.Body.String())
	}

	foodID := rec.Items[0].ID
	if resp := call(app, http.MethodPost, "/api/v1/recommendations/"+foodID+"/accept", "", guest); resp.Code != http.StatusCreated {
		t.Fatalf("accept: %d %s", resp.Code, resp.Body.String())
	}
	resp = call(app, http.MethodGet, "/api/v1/meals", "", guest)
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"source":"recommendation"`)) {
		t.Fatalf("accepted food missing from meal log: %s", resp.Body.String())
	}
}

func TestInProcessQueueDeliversToNotifier(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if _, ok := app.Queue.(queue.Func); !ok {
		t.Fatalf("expected in-process queue without NUTRI_SQS_QUEUE_URL, got %T", app.Queue)
	}
	if app.Hub.Connected("u1") != 0 {
		t.Fatalf("no streams expected")
	}
	err = app.Queue.Send(context.Background(), queue.Message{Kind: queue.KindReminder, UserID: "u1", ReminderID: "water"})
	if err != nil {
		t.Fatalf("in-process delivery: %v", err)
	}
	if err := app.Queue.Send(context.Background(), queue.Message{Kind: "other", UserID: "u1"}); err == nil {
		t.Fatalf("expected unsupported kind to fail")
	}
}

func TestBuildSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseURL = "sqlite:" + filepath.Join(t.TempDir(), "nutrition.db")

	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if app.DB == nil {
		t.Fatalf("expected sqlite database")
	}

	resp := call(app, http.MethodPost, "/api/v1/auth/register", `{"email":"ana@example.com","password":"password1","name":"Ana"}`, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", resp.Code, resp.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &session)
	auth := map[string]string{"Authorization": "Bearer " + session.Token}

	if resp := call(app, http.MethodPost, "/api/v1/meals", `{"name":"Oats","calories":350,"protein":12}`, auth); resp.Code != http.StatusCreated {
		t.Fatalf("log meal: %d %s", resp.Code, resp.Body.String())
	}
	resp = call(app, http.MethodGet, "/api/v1/me", "", auth)
	if resp.Code != http.StatusOK || !bytes.Contains(resp.Body.Bytes(), []byte("ana@example.com")) {
		t.Fatalf("me: %d %s", resp.Code, resp.Body.String())
	}
	if resp := call(app, http.MethodGet, "/api/v1/health", "", nil); !bytes.Contains(resp.Body.Bytes(), []byte(`"storage":"sql"`)) {
		t.Fatalf("health should report sql storage: %s", resp.Body.String())
	}
}
