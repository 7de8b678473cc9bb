package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-records/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestRequestLog_WritesStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

	h := chimw.RequestID(RequestLog(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})))

	req := httptest.NewRequest(http.MethodGet, "/pets/x", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/pets/x"`)
	assert.Contains(t, out, `"level":"warning"`)
	assert.Contains(t, out, `"request_id"`)
}
