package reminders

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, endpoints EndpointRegistrar) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t, endpoints)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "u1")
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerSettingsRoundTrip(t *testing.T) {
	r := newTestRouter(t, nil)

	resp := do(r, http.MethodPut, "/api/v1/reminders/settings", `{"waterInterval":45,"mealReminders":false}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = do(r, http.MethodGet, "/api/v1/reminders/settings", "")
	var s Settings
	if err := json.Unmarshal(resp.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// omitted fields keep their defaults
	if s.WaterInterval != 45 || s.MealReminders || !s.MotivationalTips || s.ActivityInterval != 180 {
		t.Fatalf("unexpected settings %+v", s)
	}

	resp = do(r, http.MethodGet, "/api/v1/reminders/schedule", "")
	var sched struct {
		Items []Upcoming `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sched); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	if len(sched.Items) != 3 {
		t.Fatalf("expected water, activity and tip, got %+v", sched.Items)
	}

	if resp := do(r, http.MethodPut, "/api/v1/reminders/settings", `{"waterInterval":5000}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHandlerDevices(t *testing.T) {
	r := newTestRouter(t, nil)
	if resp := do(r, http.MethodPost, "/api/v1/devices", `{"platform":"ios","token":"abc"}`); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without push, got %d", resp.Code)
	}

	r = newTestRouter(t, &fakeRegistrar{})
	if resp := do(r, http.MethodPost, "/api/v1/devices", `{"platform":"ios","token":"abc"}`); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := do(r, http.MethodPost, "/api/v1/devices", `{"platform":"palm","token":"abc"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	resp := do(r, http.MethodGet, "/api/v1/devices", "")
	if resp.Code != http.StatusOK || !bytes.Contains(resp.Body.Bytes(), []byte(`"platform":"ios"`)) {
		t.Fatalf("unexpected devices %s", resp.Body.String())
	}
}
