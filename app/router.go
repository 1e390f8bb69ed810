package app

import (
	"net/http"
)

// RouteOpts defines handlers for different content types
type RouteOpts struct {
	// JSON handler - called when Accept: application/json or Content-Type: application/json
	JSON http.HandlerFunc
	// HTML handler - called for browser requests (default)
	HTML http.HandlerFunc
	// Methods lists the allowed methods; empty allows any
	Methods []string
}

// Route creates a handler that dispatches based on content type
func Route(opts RouteOpts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(opts.Methods) > 0 && !allowed(opts.Methods, r.Method) {
			MethodNotAllowed(w, r)
			return
		}

		if WantsJSON(r) || SendsJSON(r) {
			if opts.JSON != nil {
				opts.JSON(w, r)
				return
			}
			RespondError(w, http.StatusNotAcceptable, "JSON not supported")
			return
		}

		if opts.HTML != nil {
			opts.HTML(w, r)
			return
		}

		if opts.JSON != nil {
			opts.JSON(w, r)
			return
		}

		http.Error(w, "No handler available", http.StatusNotImplemented)
	}
}

func allowed(methods []string, m string) bool {
	for _, v := range methods {
		if v == m {
			return true
		}
	}
	return false
}
