package core

import "time"

// State is the lifecycle state of a user session.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateReady      State = "ready"
	StateFailed     State = "failed"
	StateRefining   State = "refining"
)

// RefinementKind selects one of the two refinement operations.
type RefinementKind string

const (
	RefineFact  RefinementKind = "fact"
	RefineSpell RefinementKind = "spell"
)

// Valid reports whether k names a known refinement.
func (k RefinementKind) Valid() bool {
	return k == RefineFact || k == RefineSpell
}

// Session is the explicit per-user state of one generate/refine flow.
// It is owned by a single caller and passed by reference to the pipeline.
type Session struct {
	ID           string         `json:"id"`
	State        State          `json:"state"`
	Refining     RefinementKind `json:"refining,omitempty"`
	Topic        string         `json:"topic"`
	Post         *BlogPost      `json:"post,omitempty"`
	Image        ImageRef       `json:"image"`
	Stats        TextStats      `json:"stats"`
	Backend      string         `json:"backend,omitempty"` // Backend that produced Post
	FactChecked  bool           `json:"fact_checked"`
	SpellChecked bool           `json:"spell_checked"`
	LastError    string         `json:"last_error,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewSession returns an idle session.
func NewSession(id string) *Session {
	return &Session{ID: id, State: StateIdle, UpdatedAt: time.Now()}
}

// HasOutput reports whether the session holds a generated post.
func (s *Session) HasOutput() bool {
	return s.Post != nil
}
