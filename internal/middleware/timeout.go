package middleware

import (
	"net/http"
	"time"

	"technotes-api/pkg/apierror"
)

const codeRequestTimeout = "REQUEST_TIMEOUT"

// Timeout cuts off handlers that run longer than timeout with a 503 rendered
// in the format the client negotiated.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	apiErr := apierror.New(codeRequestTimeout, "Request timed out", "", http.StatusServiceUnavailable)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType, body := renderError(r, apiErr)
			tw := &timeoutResponseWriter{ResponseWriter: w, contentType: contentType}
			http.TimeoutHandler(next, timeout, string(body)).ServeHTTP(tw, r)
		})
	}
}

// timeoutResponseWriter labels the timeout body. A handler that finished in
// time has already copied its own headers, so an existing Content-Type wins.
type timeoutResponseWriter struct {
	http.ResponseWriter
	contentType string
}

func (w *timeoutResponseWriter) WriteHeader(status int) {
	if status == http.StatusServiceUnavailable && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", w.contentType)
		w.Header().Set("X-Content-Type-Options", "nosniff")
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *timeoutResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
