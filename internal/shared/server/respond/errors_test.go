package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"nutrition-backend/internal/shared/telemetry"
)

func TestErrorEnvelopeAndLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		c.Set("userId", "user-1")
		Error(c, http.StatusServiceUnavailable, "catalog_unavailable", "Food catalog unavailable", nil)
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "catalog_unavailable" || body.Error.Message == "" {
		t.Fatalf("unexpected body: %+v", body)
	}

	var logLine map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &logLine); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if logLine["msg"] != "http.error" || logLine["user_id"] != "user-1" {
		t.Fatalf("unexpected log line: %v", logLine)
	}
}

func TestBadRequestIncludesReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		BadRequest(c, errors.New("name is required"))
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/x", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "validation_error" || body.Error.Details["reason"] != "name is required" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
