package app

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"
)

// maxBodyBytes bounds decoded request bodies.
const maxBodyBytes = 1 << 20

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// SendsJSON reports whether the request body is JSON.
func SendsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// RespondJSON writes v as a 200 JSON response.
func RespondJSON(w http.ResponseWriter, v interface{}) {
	RespondJSONStatus(w, http.StatusOK, v)
}

// RespondJSONStatus writes v as JSON with the given status.
func RespondJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Log("app", "Error encoding response: %v", err)
	}
}

// RespondError writes a JSON error body.
func RespondError(w http.ResponseWriter, status int, msg string) {
	RespondJSONStatus(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// Response is a page rendered for a browser request.
type Response struct {
	Status      int
	Title       string
	Description string
	HTML        string
}

// Respond renders the response in the page template.
func Respond(w http.ResponseWriter, r *http.Request, resp Response) {
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(resp.Status)
	w.Write([]byte(RenderHTML(resp.Title, resp.Description, resp.HTML)))
}

func respondStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if WantsJSON(r) || SendsJSON(r) {
		RespondError(w, status, msg)
		return
	}
	Respond(w, r, Response{
		Status: status,
		Title:  http.StatusText(status),
		HTML:   `<p class="text-error">` + html.EscapeString(msg) + `</p><p><a href="/">Back</a></p>`,
	})
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respondStatus(w, r, http.StatusBadRequest, msg)
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	respondStatus(w, r, http.StatusUnauthorized, "Authentication required")
}

func Forbidden(w http.ResponseWriter, r *http.Request, msg string) {
	respondStatus(w, r, http.StatusForbidden, msg)
}

func NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	respondStatus(w, r, http.StatusNotFound, msg)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

func ServerError(w http.ResponseWriter, r *http.Request, msg string) {
	respondStatus(w, r, http.StatusInternalServerError, msg)
}

// RedirectToLogin sends the browser to the landing page with the sign in dialog open.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/?signin=1", http.StatusFound)
}

// TimeAgo formats t relative to now.
func TimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Format("Jan 2, 2006")
}
