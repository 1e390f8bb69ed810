package landing

import (
	"strconv"
	"time"
)

// Defaults applied by DecodeProject when a field is missing or empty
const (
	DefaultName        = "Untitled App"
	DefaultDescription = "No description available"
	DefaultType        = "general"
)

// MaxRecent is the number of recent projects shown
const MaxRecent = 6

// User is the signed-in visitor
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Project is a recent app shown on the landing page
type Project struct {
	ID          string
	Name        string
	Description string
	Type        string
	CreatedAt   time.Time
	Public      bool
}

// ProjectRecord is one entry of the listing response. Every field is optional.
type ProjectRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	CreatedAt   string `json:"createdAt"`
}

// DecodeProject maps a listing record to a Project.
//
//	id          -> current time in unix nanoseconds
//	name        -> "Untitled App"
//	description -> "No description available"
//	type        -> "general"
//	createdAt   -> now (also when unparseable)
//
// Listed projects are always shown as public.
func DecodeProject(rec ProjectRecord, now time.Time) *Project {
	p := &Project{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Type:        rec.Type,
		Public:      true,
	}

	if p.ID == "" {
		p.ID = strconv.FormatInt(now.UnixNano(), 10)
	}
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.Description == "" {
		p.Description = DefaultDescription
	}
	if p.Type == "" {
		p.Type = DefaultType
	}
	p.CreatedAt = now
	if rec.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.CreatedAt); err == nil {
			p.CreatedAt = t
		}
	}

	return p
}
