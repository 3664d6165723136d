package oauthgw

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/getsentry/sentry-mcp-gateway/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	approvalTemplate = template.Must(template.ParseFS(templateFS, "templates/approval.html"))
	errorTemplate    = template.Must(template.ParseFS(templateFS, "templates/error.html"))
)

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

type approvalPageData struct {
	ClientName     string
	EncodedRequest string
}

// renderApprovalPage renders the consent screen asking the user whether
// to grant client access (spec.md §4.5 treats this page's exact visual
// design as a black box; only the round-tripped request and the
// permission checkboxes are load-bearing).
func renderApprovalPage(w http.ResponseWriter, client *Client, req AuthRequest) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	encoded, err := EncodeAuthRequest(req)
	if err != nil {
		logging.Error(subsystem, err, "failed to encode auth request for approval form")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	name := client.ClientName
	if name == "" {
		name = client.ClientID
	}
	data := approvalPageData{
		ClientName:     name,
		EncodedRequest: encoded,
	}

	var buf bytes.Buffer
	if err := approvalTemplate.Execute(&buf, data); err != nil {
		logging.Error(subsystem, err, "failed to render approval template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// renderErrorPage renders a generic authorization-error page.
func renderErrorPage(w http.ResponseWriter, message string) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, struct{ Message string }{Message: message}); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusBadRequest)
	w.Write(buf.Bytes())
}
