// Package admin serves the operator pages and the health check.
package admin

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"peaks/app"
	"peaks/auth"
)

// AdminHandler shows the account list and handles admin toggles and deletes
func AdminHandler(w http.ResponseWriter, r *http.Request) {
	_, acc, err := auth.RequireAdmin(r)
	if err != nil {
		app.Forbidden(w, r, "Admin access required")
		return
	}

	if r.Method == http.MethodPost {
		handleAction(w, r, acc)
		return
	}

	users, err := auth.GetAllAccounts()
	if err != nil {
		app.Log("admin", "List accounts error: %v", err)
		app.ServerError(w, r, "Failed to load accounts")
		return
	}

	var content strings.Builder
	content.WriteString(`<h2>Accounts</h2>`)
	content.WriteString(fmt.Sprintf(`<p>Total: %d</p>`, len(users)))
	content.WriteString(`<p><a href="/admin/syslog">System Log</a> · <a href="/admin/apilog">API Log</a> · <a href="/admin/env">Environment</a></p>`)
	content.WriteString(`<table class="log"><tr><th>Email</th><th>Name</th><th>Created</th><th>Admin</th><th></th></tr>`)

	for _, user := range users {
		label := "Make admin"
		if user.Admin {
			label = "Revoke admin"
		}
		toggle := app.PostButton("/admin", label, "btn-outline", "action", "toggle_admin", "user_id", user.ID)

		// no deleting yourself
		del := ""
		if user.ID != acc.ID {
			del = app.PostButton("/admin", "Delete", "btn-outline", "action", "delete", "user_id", user.ID)
		}

		content.WriteString(fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(user.Email),
			html.EscapeString(user.Name),
			user.Created.Format("2006-01-02"),
			toggle,
			del,
		))
	}
	content.WriteString(`</table>`)

	app.Respond(w, r, app.Response{
		Title:       "Admin",
		Description: "Account management",
		HTML:        content.String(),
	})
}

func handleAction(w http.ResponseWriter, r *http.Request, acc *auth.Account) {
	if err := r.ParseForm(); err != nil {
		app.BadRequest(w, r, "Failed to parse form")
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		app.BadRequest(w, r, "User ID required")
		return
	}

	target, err := auth.GetAccount(userID)
	if err != nil {
		app.NotFound(w, r, "User not found")
		return
	}

	switch r.FormValue("action") {
	case "toggle_admin":
		if target.ID == acc.ID && target.Admin {
			app.BadRequest(w, r, "You cannot revoke your own admin rights")
			return
		}
		err = auth.SetAdmin(target.ID, !target.Admin)
	case "delete":
		if target.ID == acc.ID {
			app.BadRequest(w, r, "You cannot delete yourself")
			return
		}
		err = auth.DeleteAccount(target.ID)
	default:
		app.BadRequest(w, r, "Unknown action")
		return
	}

	if err != nil {
		app.Log("admin", "Action on %s failed: %v", target.ID, err)
		app.ServerError(w, r, "Action failed")
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
