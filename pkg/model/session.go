package model

// Stage identifies the current step of the staged dialogue.
type Stage string

const (
	StageName         Stage = "name"
	StageZIP          Stage = "zip"
	StageNeighborhood Stage = "neighborhood"
	StageCraving      Stage = "craving"
)

// Session is the mutable per-conversation state. It is created at first user
// contact, mutated in place once per turn by its owning connection, and reset
// on explicit restart. All optional fields default to their zero value.
type Session struct {
	Stage        Stage
	Name         string
	ZIPCode      string
	Neighborhood string

	LastCraving     string
	LastRestaurants []*Restaurant
}

// NewSession returns a fresh session at the name stage.
func NewSession() *Session {
	return &Session{Stage: StageName}
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	*s = Session{Stage: StageName}
}
