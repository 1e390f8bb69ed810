package auth

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"peaks/app"
)

var validate = validator.New()

// User is the public view of an account
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type signupRequest struct {
	Name     string `json:"name" validate:"max=80"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func toUser(acc *Account) *User {
	return &User{ID: acc.ID, Name: acc.Name, Email: acc.Email}
}

// decode reads a JSON or form body into the request struct
func decode(r *http.Request, v interface{}) error {
	if app.SendsJSON(r) {
		return app.DecodeJSON(r, v)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	switch req := v.(type) {
	case *loginRequest:
		req.Email = r.Form.Get("email")
		req.Password = r.Form.Get("password")
	case *signupRequest:
		req.Name = r.Form.Get("name")
		req.Email = r.Form.Get("email")
		req.Password = r.Form.Get("password")
	}
	return nil
}

// MeHandler handles GET /api/auth/me
func MeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		app.MethodNotAllowed(w, r)
		return
	}

	_, acc, err := RequireSession(r)
	if err != nil {
		app.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	app.RespondJSON(w, map[string]interface{}{"user": toUser(acc)})
}

// LoginHandler handles POST /api/auth/login
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}

	var req loginRequest
	if err := decode(r, &req); err != nil {
		app.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(&req); err != nil {
		app.RespondError(w, http.StatusBadRequest, "email and password required")
		return
	}

	acc, sess, err := Login(req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		app.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		app.Log("auth", "Login error: %v", err)
		app.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	SetCookie(w, sess.Token)
	app.RespondJSON(w, map[string]interface{}{"user": toUser(acc)})
}

// SignupHandler handles POST /api/auth/signup
func SignupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}

	var req signupRequest
	if err := decode(r, &req); err != nil {
		app.RespondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(&req); err != nil {
		app.RespondError(w, http.StatusBadRequest, "a valid email and a password of at least 8 characters are required")
		return
	}

	acc, sess, err := Signup(req.Name, req.Email, req.Password)
	if errors.Is(err, ErrEmailTaken) {
		app.RespondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		app.Log("auth", "Signup error: %v", err)
		app.RespondError(w, http.StatusInternalServerError, "signup failed")
		return
	}

	SetCookie(w, sess.Token)
	app.RespondJSON(w, map[string]interface{}{"user": toUser(acc)})
}

// LogoutHandler handles POST /api/auth/logout
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}

	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if err := Logout(c.Value); err != nil {
			app.Log("auth", "Logout error: %v", err)
		}
	}

	ClearCookie(w)
	app.RespondJSON(w, map[string]interface{}{"success": true})
}
