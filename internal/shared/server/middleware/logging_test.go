package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"nutrition-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	router := gin.New()
	router.Use(RequestID(), Auth("dev"), Logging())
	router.POST("/api/v1/recommendations/:foodId/accept", func(c *gin.Context) {
		c.Set("foodId", c.Param("foodId"))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/spinach/accept", nil)
	req.Header.Set("X-Guest-Id", "guest1")
	req.Header.Set("X-Request-Id", "req-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json %q: %v", last, err)
	}

	for _, key := range []string{"request_id", "user_id", "duration_ms", "status", "route", "food_id"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["msg"] != "request.complete" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["user_id"] != "guest-guest1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["request_id"] != "req-1" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["food_id"] != "spinach" {
		t.Fatalf("unexpected food_id: %v", payload["food_id"])
	}
	if payload["status"] != float64(http.StatusOK) {
		t.Fatalf("expected numeric status, got %v", payload["status"])
	}
	if _, ok := payload["duration_ms"].(float64); !ok {
		t.Fatalf("expected numeric duration, got %T", payload["duration_ms"])
	}
	if payload["is_guest"] != true {
		t.Fatalf("expected is_guest true, got %v", payload["is_guest"])
	}
}
