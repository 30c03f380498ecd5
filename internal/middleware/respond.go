package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"strings"

	"technotes-api/internal/model"
	"technotes-api/pkg/apierror"
)

const (
	FormatJSON = "json"
	FormatHTML = "html"
	FormatText = "text"
)

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Status}} {{.StatusText}}</title>
<link rel="stylesheet" href="/css/style.css">
</head>
<body>
<h1>{{.Status}} {{.StatusText}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

// Negotiate picks the error body format from the Accept header. An explicit
// application/json wins, then text/html, then text/plain. Clients that send
// no Accept header or only */* get JSON.
func Negotiate(r *http.Request) string {
	accept := strings.TrimSpace(r.Header.Get("Accept"))
	if accept == "" {
		return FormatJSON
	}

	var html, text, wildcard bool
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil || params["q"] == "0" {
			continue
		}
		switch {
		case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
			return FormatJSON
		case mediaType == "text/html":
			html = true
		case mediaType == "text/plain" || mediaType == "text/*":
			text = true
		case mediaType == "*/*":
			wildcard = true
		}
	}

	switch {
	case html:
		return FormatHTML
	case text:
		return FormatText
	case wildcard:
		return FormatJSON
	default:
		return FormatText
	}
}

func WriteJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// WriteError renders apiErr in the format the client asked for.
func WriteError(w http.ResponseWriter, r *http.Request, apiErr *apierror.APIError) {
	contentType, body := renderError(r, apiErr)

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(apiErr.HTTPStatus)
	_, _ = w.Write(body)
}

func renderError(r *http.Request, apiErr *apierror.APIError) (string, []byte) {
	switch Negotiate(r) {
	case FormatHTML:
		var buf bytes.Buffer
		_ = errorPage.Execute(&buf, map[string]any{
			"Status":     apiErr.HTTPStatus,
			"StatusText": http.StatusText(apiErr.HTTPStatus),
			"Message":    apiErr.Message,
		})
		return "text/html; charset=utf-8", buf.Bytes()
	case FormatText:
		return "text/plain; charset=utf-8", []byte(fmt.Sprintln(apiErr.Message))
	default:
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(model.ErrorResponse{
			Message: apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
			IsError: true,
		})
		return "application/json; charset=utf-8", buf.Bytes()
	}
}
