package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"technotes-api/pkg/apierror"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{accept: "", want: FormatJSON},
		{accept: "*/*", want: FormatJSON},
		{accept: "application/json", want: FormatJSON},
		{accept: "application/problem+json", want: FormatJSON},
		{accept: "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", want: FormatHTML},
		{accept: "text/plain", want: FormatText},
		{accept: "image/png", want: FormatText},
		{accept: "text/html;q=0, text/plain", want: FormatText},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", tt.accept)
		assert.Equal(t, tt.want, Negotiate(req), tt.accept)
	}
}

func TestWriteErrorFormats(t *testing.T) {
	apiErr := apierror.Forbidden("Forbidden")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	WriteError(rec, req, apiErr)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>403 Forbidden</h1>")

	req.Header.Set("Accept", "text/plain")
	rec = httptest.NewRecorder()
	WriteError(rec, req, apiErr)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "Forbidden\n", rec.Body.String())

	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	WriteError(rec, req, apiErr)
	assert.JSONEq(t, `{"message":"Forbidden","code":"FORBIDDEN","isError":true}`, rec.Body.String())
}

func TestRecoveryConvertsPanics(t *testing.T) {
	sink := newMemorySink()
	handler := Recovery(sink)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Unexpected server error","code":"INTERNAL_ERROR","isError":true}`, rec.Body.String())
	assert.Len(t, sink.lines("errLog.log"), 1)
}

func TestLoggingWritesRequestLog(t *testing.T) {
	sink := newMemorySink()
	handler := Logging(sink)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/notes?x=1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, []string{"GET\t/notes?x=1\thttp://localhost:3000"}, sink.lines("reqLog.log"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}
