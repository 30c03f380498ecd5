package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"technotes-api/internal/logger"
	"technotes-api/pkg/apierror"
)

func Recovery(sink eventSink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					if recovered == http.ErrAbortHandler {
						panic(recovered)
					}

					slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "stack", string(debug.Stack()))
					if sink != nil {
						sink.Log(logger.ErrorLog, fmt.Sprintf("panic: %v\t%s\t%s", recovered, r.Method, r.URL.String()))
					}
					WriteError(w, r, apierror.Internal())
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
