package admin

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"peaks/app"
	"peaks/auth"
)

// APILogHandler shows the outbound API call log
func APILogHandler(w http.ResponseWriter, r *http.Request) {
	if _, _, err := auth.RequireAdmin(r); err != nil {
		app.Forbidden(w, r, "Admin access required")
		return
	}

	entries := app.GetAPILog()

	if app.WantsJSON(r) {
		app.RespondJSON(w, map[string]interface{}{"entries": entries})
		return
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf(`<h2>API Calls <span class="badge">%d</span></h2>`, len(entries)))

	if len(entries) == 0 {
		content.WriteString(app.Empty("No API calls recorded yet."))
	} else {
		content.WriteString(`<table class="log">`)
		content.WriteString(`<tr><th>Time</th><th>Service</th><th>Method</th><th>URL</th><th>Status</th><th>Duration</th><th>Error</th></tr>`)

		for _, e := range entries {
			status := fmt.Sprintf("%d", e.Status)
			if e.Status == 0 {
				status = "err"
			}

			content.WriteString(fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>%s</td><td title="%s">%s</td><td>%s</td><td>%dms</td><td title="%s">%s</td></tr>`,
				e.Time.Format("Jan 2 15:04:05"),
				html.EscapeString(e.Service),
				html.EscapeString(e.Method),
				html.EscapeString(e.URL), html.EscapeString(truncate(e.URL, 50)),
				status,
				e.Duration.Milliseconds(),
				html.EscapeString(e.Error), html.EscapeString(truncate(e.Error, 60)),
			))
		}

		content.WriteString(`</table>`)
	}

	content.WriteString(`<p><a href="/admin">&larr; Back to Admin</a></p>`)

	app.Respond(w, r, app.Response{
		Title:       "API Log",
		Description: "Outbound API Log",
		HTML:        content.String(),
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
