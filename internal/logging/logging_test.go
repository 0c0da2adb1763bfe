package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	return entry
}

func TestLogKV(t *testing.T) {
	var buf bytes.Buffer
	initWith(&buf, "info")
	defer Init("info")

	LogKV("warn", "binding skipped", map[string]interface{}{"partner_id": "p1"})
	entry := lastLine(t, &buf)
	if entry["level"] != "WARN" || entry["msg"] != "binding skipped" || entry["partner_id"] != "p1" {
		t.Fatalf("unexpected entry: %v", entry)
	}

	buf.Reset()
	LogKV("debug", "hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug line should be filtered at info level: %s", buf.String())
	}
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	initWith(&buf, "info")
	defer Init("info")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JSONLogger())
	r.GET("/boom/:id", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom/1?x=y", nil))

	entry := lastLine(t, &buf)
	if entry["level"] != "ERROR" {
		t.Fatalf("expected error level, got %v", entry["level"])
	}
	if entry["route"] != "/boom/:id" || entry["query"] != "x=y" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if status, _ := entry["status"].(float64); status != 500 {
		t.Fatalf("expected status 500, got %v", entry["status"])
	}
}
