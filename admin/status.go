package admin

import (
	"fmt"
	"html"
	"net/http"
	"runtime"
	"strings"
	"time"

	"peaks/app"
	"peaks/data"
)

var startTime = time.Now()

// LiveViewsFunc reports the number of open landing views; set by main
var LiveViewsFunc func() int

// StatusCheck is a single health check result
type StatusCheck struct {
	Name    string `json:"name"`
	Status  bool   `json:"status"`
	Details string `json:"details,omitempty"`
}

// MemoryStatus is the runtime memory summary
type MemoryStatus struct {
	Alloc      uint64 `json:"alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

// StatusResponse is the body of /status
type StatusResponse struct {
	Healthy   bool          `json:"healthy"`
	Uptime    string        `json:"uptime"`
	GoVersion string        `json:"go_version"`
	Memory    MemoryStatus  `json:"memory"`
	Services  []StatusCheck `json:"services"`
	Views     int           `json:"views"`
}

// StatusHandler handles /status
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	status := buildStatus()

	if r.URL.Query().Get("quick") == "1" {
		app.RespondJSON(w, map[string]interface{}{"healthy": status.Healthy})
		return
	}

	if r.URL.Query().Get("format") == "json" || app.WantsJSON(r) {
		app.RespondJSON(w, status)
		return
	}

	app.Respond(w, r, app.Response{
		Title:       "Status",
		Description: "Server status and health checks",
		HTML:        renderStatusHTML(status),
	})
}

func buildStatus() StatusResponse {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	db := StatusCheck{Name: "Database", Details: data.Dir()}
	if conn, err := data.DB(); err != nil {
		db.Details = err.Error()
	} else if err := conn.Ping(); err != nil {
		db.Details = err.Error()
	} else {
		db.Status = true
	}

	status := StatusResponse{
		Healthy:   db.Status,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		GoVersion: runtime.Version(),
		Memory: MemoryStatus{
			Alloc:      m.Alloc / 1024 / 1024,
			Sys:        m.Sys / 1024 / 1024,
			NumGC:      m.NumGC,
			Goroutines: runtime.NumGoroutine(),
		},
		Services: []StatusCheck{db},
	}
	if LiveViewsFunc != nil {
		status.Views = LiveViewsFunc()
	}
	return status
}

func renderStatusHTML(s StatusResponse) string {
	var b strings.Builder

	overall := `<span class="text-error">Degraded</span>`
	if s.Healthy {
		overall = "Healthy"
	}
	b.WriteString(`<h2>Status: ` + overall + `</h2>`)
	b.WriteString(app.Meta(fmt.Sprintf("Up %s · %s · %d goroutines · %d MB · %d open views",
		s.Uptime, s.GoVersion, s.Memory.Goroutines, s.Memory.Alloc, s.Views)))

	b.WriteString(`<table class="log"><tr><th>Service</th><th>Status</th><th>Details</th></tr>`)
	for _, c := range s.Services {
		state := `<span class="text-error">down</span>`
		if c.Status {
			state = "ok"
		}
		b.WriteString(fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(c.Name), state, html.EscapeString(c.Details)))
	}
	b.WriteString(`</table>`)
	return b.String()
}
