package project

import (
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
)

// Project is a founder's workspace: one pass through the stage catalog.
type Project struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name"`
	InitialIdea string          `json:"initial_idea"`
	Locale      string          `json:"locale"`
	Cursor      catalog.StageID `json:"cursor"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// Snapshot is a project with its answers and transcript, as loaded and saved as a unit.
type Snapshot struct {
	Project
	Answers    catalog.Answers `json:"answers"`
	Transcript []Message       `json:"transcript"`
}

// Sender identifies who wrote a transcript message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// Source is a reference the generator cited.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// Message is one entry of the chat transcript.
type Message struct {
	ID         string          `json:"id"`
	Sender     Sender          `json:"sender"`
	Text       string          `json:"text"`
	Stage      catalog.StageID `json:"stage,omitempty"`
	Suggestion bool            `json:"suggestion,omitempty"`
	Sources    []Source        `json:"sources,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

// Append adds msg to the transcript.
func (s *Snapshot) Append(msg Message) {
	s.Transcript = append(s.Transcript, msg)
}

// Message returns the transcript message with id.
func (s *Snapshot) Message(id string) (*Message, bool) {
	for i := range s.Transcript {
		if s.Transcript[i].ID == id {
			return &s.Transcript[i], true
		}
	}
	return nil, false
}

// RemoveSuggestions drops every pending suggestion from the transcript.
func (s *Snapshot) RemoveSuggestions() {
	kept := s.Transcript[:0]
	for _, m := range s.Transcript {
		if !m.Suggestion {
			kept = append(kept, m)
		}
	}
	s.Transcript = kept
}

// Member roles.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Member is a user a project is shared with.
type Member struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	AddedAt   int64  `json:"added_at"`
}

// CreateProjectInput holds the parameters for creating a new project.
type CreateProjectInput struct {
	OwnerID     string `json:"owner_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=200"`
	InitialIdea string `json:"initial_idea" validate:"max=5000"`
	Locale      string `json:"locale" validate:"omitempty,bcp47_language_tag"`
}
