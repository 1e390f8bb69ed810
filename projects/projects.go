package projects

import (
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mrz1836/go-sanitize"

	"peaks/app"
	"peaks/data"
)

const (
	// DefaultType is used when a project has no app type
	DefaultType = "general"

	// StatusQueued marks a project waiting for the generator
	StatusQueued = "queued"

	maxNameLen = 60
	maxDescLen = 140
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrNotAuthorized = errors.New("not authorized")
)

// Project is an app a user asked the builder to create
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Prompt      string    `json:"prompt"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Public      bool      `json:"public"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record is the wire shape returned by the listing endpoint
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	CreatedAt   string `json:"createdAt"`
	Public      bool   `json:"isPublic"`
}

// Record converts the project to its wire shape
func (p *Project) Record() *Record {
	return &Record{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		Public:      p.Public,
	}
}

// NormalizeType reduces an app type to a lowercase slug
func NormalizeType(t string) string {
	t = strings.ToLower(sanitize.AlphaNumeric(t, false))
	if t == "" {
		return DefaultType
	}
	if len(t) > 32 {
		t = t[:32]
	}
	return t
}

// nameFromPrompt derives a short project name from the first line of the prompt
func nameFromPrompt(prompt string) string {
	line := prompt
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(sanitize.SingleLine(line))
	line = strings.TrimRight(line, ".!?")
	if line == "" {
		return "Untitled App"
	}
	return truncateWords(line, maxNameLen)
}

// truncateWords cuts s at a word boundary so it fits in max bytes
func truncateWords(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	cut := s[:max]
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}

// Create records a new project for the user
func Create(userID, prompt, appType string) (*Project, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt required")
	}

	db, err := data.DB()
	if err != nil {
		return nil, err
	}

	p := &Project{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        nameFromPrompt(prompt),
		Description: truncateWords(strings.Join(strings.Fields(prompt), " "), maxDescLen),
		Prompt:      prompt,
		Type:        NormalizeType(appType),
		Status:      StatusQueued,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = db.Exec(`INSERT INTO projects (id, user_id, name, description, prompt, type, status, public, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, p.Prompt, p.Type, p.Status, p.Public, p.CreatedAt)
	if err != nil {
		return nil, err
	}

	app.Log("projects", "Created project %s (%s) for %s", p.ID, p.Type, userID)
	return p, nil
}

// Get returns a project by ID, or nil if there is none
func Get(id string) (*Project, error) {
	db, err := data.DB()
	if err != nil {
		return nil, err
	}

	p, err := scanProject(db.QueryRow(`SELECT id, user_id, name, description, prompt, type, status, public, created_at
		FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListByUser returns the user's projects, newest first
func ListByUser(userID string, limit int) ([]*Project, error) {
	db, err := data.DB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`SELECT id, user_id, name, description, prompt, type, status, public, created_at
		FROM projects WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SetPublic changes the visibility of a project. Only the owner may do this.
func SetPublic(id, userID string, public bool) error {
	p, err := Get(id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if p.UserID != userID {
		return ErrNotAuthorized
	}

	db, err := data.DB()
	if err != nil {
		return err
	}
	_, err = db.Exec(`UPDATE projects SET public = ? WHERE id = ?`, public, id)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row scanner) (*Project, error) {
	p := &Project{}
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Prompt, &p.Type, &p.Status, &p.Public, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
