package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"peaks/admin"
	"peaks/app"
	"peaks/auth"
	"peaks/data"
	"peaks/landing"
	"peaks/projects"
)

var EnvFlag = flag.String("env", "dev", "Set the environment")
var ServeFlag = flag.Bool("serve", false, "Run the server")
var AddressFlag = flag.String("address", ":8080", "Address for server")
var APIFlag = flag.String("api", "", "Base URL of the API used by the landing page (default: this server)")

func main() {
	flag.Parse()

	if !*ServeFlag {
		fmt.Fprintln(os.Stderr, "--serve not set")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		app.Log("main", "Failed to load .env: %v", err)
	}

	auth.SecureCookies = os.Getenv("COOKIE_SECURE") == "true"
	projects.PublicURL = os.Getenv("PEAKS_URL")

	if _, err := data.DB(); err != nil {
		app.Log("main", "Failed to open database: %v", err)
		os.Exit(1)
	}
	defer data.Close()

	views := landing.NewViews(apiURL())
	admin.LiveViewsFunc = views.Len

	// only admin pages need a session up front; the rest check their own
	authenticated := map[string]bool{
		"/admin": true,
	}

	// the landing page and its form actions
	http.Handle("/", views)
	http.Handle("/landing/", views)

	// session endpoints
	http.HandleFunc("/api/auth/me", auth.MeHandler)
	http.HandleFunc("/api/auth/login", auth.LoginHandler)
	http.HandleFunc("/api/auth/signup", auth.SignupHandler)
	http.HandleFunc("/api/auth/logout", auth.LogoutHandler)

	// projects
	http.HandleFunc("/api/projects", projects.APIHandler)
	http.HandleFunc("/projects", projects.Handler)
	http.HandleFunc("/projects/", projects.Handler)

	// admin
	http.HandleFunc("/admin", admin.AdminHandler)
	http.HandleFunc("/admin/syslog", admin.SysLogHandler)
	http.HandleFunc("/admin/apilog", admin.APILogHandler)
	http.HandleFunc("/admin/env", admin.EnvHandler)

	// health
	http.HandleFunc("/status", admin.StatusHandler)

	// static assets
	http.Handle("/peaks.css", app.Serve())

	srv := &http.Server{
		Addr: *AddressFlag,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if *EnvFlag == "dev" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Allow-Credentials", "true")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}
			}

			if v := len(r.URL.Path); v > 1 && strings.HasSuffix(r.URL.Path, "/") {
				r.URL.Path = r.URL.Path[:v-1]
			}

			for prefix, authed := range authenticated {
				if !authed || !strings.HasPrefix(r.URL.Path, prefix) {
					continue
				}
				var token string
				if c, err := r.Cookie(auth.CookieName); err == nil && c != nil {
					token = c.Value
				}
				if err := auth.ValidateToken(token); err != nil {
					app.RedirectToLogin(w, r)
					return
				}
			}

			http.DefaultServeMux.ServeHTTP(w, r)
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Log("main", "Starting server on %s", *AddressFlag)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return views.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		app.Log("main", "Server error: %v", err)
		os.Exit(1)
	}
}

// apiURL is where the landing page reaches the session and project
// endpoints: --api, then $PEAKS_API_URL, then this server on loopback.
func apiURL() string {
	if *APIFlag != "" {
		return *APIFlag
	}
	if v := os.Getenv("PEAKS_API_URL"); v != "" {
		return v
	}

	host, port, err := net.SplitHostPort(*AddressFlag)
	if err != nil {
		return "http://127.0.0.1:8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
