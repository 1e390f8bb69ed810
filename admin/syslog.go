package admin

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"peaks/app"
	"peaks/auth"
)

// SysLogHandler shows the in-memory system log
func SysLogHandler(w http.ResponseWriter, r *http.Request) {
	if _, _, err := auth.RequireAdmin(r); err != nil {
		app.Forbidden(w, r, "Admin access required")
		return
	}

	entries := app.GetSysLog()

	if app.WantsJSON(r) {
		app.RespondJSON(w, map[string]interface{}{"entries": entries})
		return
	}

	var content strings.Builder
	content.WriteString(fmt.Sprintf(`<h2>System Log <span class="badge">%d</span></h2>`, len(entries)))

	if len(entries) == 0 {
		content.WriteString(app.Empty("No log entries yet."))
	} else {
		content.WriteString(`<table class="log">`)
		content.WriteString(`<tr><th>Time</th><th>Package</th><th>Message</th></tr>`)
		for _, e := range entries {
			content.WriteString(fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>%s</td></tr>`,
				e.Time.Format("Jan 2 15:04:05"),
				html.EscapeString(e.Package),
				html.EscapeString(e.Message),
			))
		}
		content.WriteString(`</table>`)
	}

	content.WriteString(`<p><a href="/admin">&larr; Back to Admin</a></p>`)

	app.Respond(w, r, app.Response{
		Title:       "System Log",
		Description: "System Log",
		HTML:        content.String(),
	})
}
