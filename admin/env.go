package admin

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"peaks/app"
	"peaks/auth"
)

// knownEnvVars lists the environment variables the server reads.
// Values are never shown; only whether each variable is set.
var knownEnvVars = []string{
	"PEAKS_DIR",
	"PEAKS_URL",
	"PEAKS_API_URL",
	"COOKIE_SECURE",
}

// EnvHandler shows which environment variables are configured
func EnvHandler(w http.ResponseWriter, r *http.Request) {
	if _, _, err := auth.RequireAdmin(r); err != nil {
		app.Forbidden(w, r, "Admin access required")
		return
	}

	var content strings.Builder
	content.WriteString(`<h2>Environment</h2>`)
	content.WriteString(`<p class="card-meta">Shows whether each variable is set. Values are never displayed.</p>`)
	content.WriteString(`<table class="log"><tr><th>Variable</th><th>Status</th></tr>`)

	for _, name := range knownEnvVars {
		status := `<span class="text-error">not set</span>`
		if val := os.Getenv(name); val != "" {
			status = fmt.Sprintf(`set (%d chars)`, len(val))
		}
		content.WriteString(fmt.Sprintf(`<tr><td><code>%s</code></td><td>%s</td></tr>`, name, status))
	}

	content.WriteString(`</table>`)
	content.WriteString(`<p><a href="/admin">&larr; Back to Admin</a></p>`)

	app.Respond(w, r, app.Response{
		Title:       "Environment",
		Description: "Environment variables",
		HTML:        content.String(),
	})
}
