package auth

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrz1836/go-sanitize"
	"golang.org/x/crypto/bcrypt"

	"peaks/app"
	"peaks/data"
)

// CookieName is the browser cookie holding the session token
const CookieName = "session"

// SecureCookies marks session cookies Secure; set from config at startup
var SecureCookies = false

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already in use")
	ErrNoSession          = errors.New("session not found")
	ErrNotAdmin           = errors.New("admin access required")
)

// Account is a registered user
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Admin        bool      `json:"admin"`
	Created      time.Time `json:"created"`
}

// Session ties a token to an account
type Session struct {
	Token   string
	Account string
	Created time.Time
}

// GenerateToken returns a new opaque session token
func GenerateToken() string {
	id := uuid.New().String()
	return base64.StdEncoding.EncodeToString([]byte(id))
}

// ValidateToken checks the token is well formed. It does not check the store.
func ValidateToken(tk string) error {
	dec, err := base64.StdEncoding.DecodeString(tk)
	if err != nil {
		return errors.New("invalid session")
	}

	if _, err := uuid.Parse(string(dec)); err != nil {
		return errors.New("invalid session")
	}

	return nil
}

// normalizeEmail lowercases and strips anything that can't be in an address
func normalizeEmail(email string) string {
	return sanitize.Email(strings.TrimSpace(email), false)
}

// displayName falls back to the mailbox name when no name is given
func displayName(name, email string) string {
	name = strings.TrimSpace(sanitize.SingleLine(name))
	if name != "" {
		return name
	}
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// Signup creates an account and opens a session for it.
// The first account created is an admin.
func Signup(name, email, password string) (*Account, *Session, error) {
	db, err := data.DB()
	if err != nil {
		return nil, nil, err
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, nil, errors.New("email required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &Account{
		ID:           uuid.New().String(),
		Name:         displayName(name, email),
		Email:        email,
		PasswordHash: string(hash),
		Created:      time.Now().UTC(),
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM accounts WHERE email = ?`, email).Scan(&exists); err != nil {
		return nil, nil, err
	}
	if exists > 0 {
		return nil, nil, ErrEmailTaken
	}

	var total int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, nil, err
	}
	acc.Admin = total == 0

	_, err = tx.Exec(`INSERT INTO accounts (id, name, email, password_hash, admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, acc.ID, acc.Name, acc.Email, acc.PasswordHash, acc.Admin, acc.Created)
	if err != nil {
		return nil, nil, err
	}

	sess, err := createSession(tx, acc.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	app.Log("auth", "Account created: %s", acc.ID)
	return acc, sess, nil
}

// Login checks the credentials and opens a new session
func Login(email, password string) (*Account, *Session, error) {
	db, err := data.DB()
	if err != nil {
		return nil, nil, err
	}

	acc, err := scanAccount(db.QueryRow(`SELECT id, name, email, password_hash, admin, created_at
		FROM accounts WHERE email = ?`, normalizeEmail(email)))
	if err == sql.ErrNoRows {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := createSession(db, acc.ID)
	if err != nil {
		return nil, nil, err
	}
	return acc, sess, nil
}

// Logout deletes the session. Unknown tokens are not an error.
func Logout(token string) error {
	db, err := data.DB()
	if err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// GetAccount returns the account with the given id
func GetAccount(id string) (*Account, error) {
	db, err := data.DB()
	if err != nil {
		return nil, err
	}
	acc, err := scanAccount(db.QueryRow(`SELECT id, name, email, password_hash, admin, created_at
		FROM accounts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.New("account not found")
	}
	return acc, err
}

// GetAllAccounts returns every account, newest first
func GetAllAccounts() ([]*Account, error) {
	db, err := data.DB()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT id, name, email, password_hash, admin, created_at
		FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, acc)
	}
	return list, rows.Err()
}

// SetAdmin grants or revokes admin rights
func SetAdmin(id string, admin bool) error {
	db, err := data.DB()
	if err != nil {
		return err
	}
	res, err := db.Exec(`UPDATE accounts SET admin = ? WHERE id = ?`, admin, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("account not found")
	}
	return nil
}

// DeleteAccount removes an account with its sessions and projects
func DeleteAccount(id string) error {
	db, err := data.DB()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM projects WHERE user_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	app.Log("auth", "Deleted account %s", id)
	return nil
}

// GetSession returns the stored session for the request cookie
func GetSession(r *http.Request) (*Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c == nil || c.Value == "" {
		return nil, ErrNoSession
	}
	return ParseToken(c.Value)
}

// ParseToken looks up a token in the session store
func ParseToken(tk string) (*Session, error) {
	if err := ValidateToken(tk); err != nil {
		return nil, err
	}

	db, err := data.DB()
	if err != nil {
		return nil, err
	}

	sess := &Session{Token: tk}
	err = db.QueryRow(`SELECT account_id, created_at FROM sessions WHERE token = ?`, tk).Scan(&sess.Account, &sess.Created)
	if err == sql.ErrNoRows {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// RequireSession returns the session and account or an error
func RequireSession(r *http.Request) (*Session, *Account, error) {
	sess, err := GetSession(r)
	if err != nil {
		return nil, nil, err
	}
	acc, err := GetAccount(sess.Account)
	if err != nil {
		return nil, nil, err
	}
	return sess, acc, nil
}

// RequireAdmin is RequireSession restricted to admin accounts
func RequireAdmin(r *http.Request) (*Session, *Account, error) {
	sess, acc, err := RequireSession(r)
	if err != nil {
		return nil, nil, err
	}
	if !acc.Admin {
		return nil, nil, ErrNotAdmin
	}
	return sess, acc, nil
}

// SetCookie stores the session token in the browser
func SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   SecureCookies,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

// ClearCookie removes the session cookie
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   SecureCookies,
		MaxAge:   -1,
	})
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func createSession(db execer, accountID string) (*Session, error) {
	sess := &Session{
		Token:   GenerateToken(),
		Account: accountID,
		Created: time.Now().UTC(),
	}
	if _, err := db.Exec(`INSERT INTO sessions (token, account_id, created_at) VALUES (?, ?, ?)`,
		sess.Token, sess.Account, sess.Created); err != nil {
		return nil, err
	}
	return sess, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner) (*Account, error) {
	acc := &Account{}
	if err := row.Scan(&acc.ID, &acc.Name, &acc.Email, &acc.PasswordHash, &acc.Admin, &acc.Created); err != nil {
		return nil, err
	}
	return acc, nil
}
