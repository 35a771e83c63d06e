package domain

// SessionStatus is the lifecycle state of a MediaSession
type SessionStatus int

const (
	SessionIdle SessionStatus = iota
	SessionResolving
	SessionPlaying
	SessionErrored
)

func (s SessionStatus) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionResolving:
		return "resolving"
	case SessionPlaying:
		return "playing"
	case SessionErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Strategy identifies which playback adapter serves a session
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyDirect
	StrategyAdaptive
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyAdaptive:
		return "adaptive"
	default:
		return "none"
	}
}

// MediaSession tracks the file currently selected for playback.
// Only one session is live at a time.
type MediaSession struct {
	Status       SessionStatus
	SelectedKey  string
	ResolvedURL  string
	ErrorMessage string
	Strategy     Strategy
	CastEnabled  bool // Adaptive adapter detected a cast framework
}

// IsActive returns true if a session is resolving, playing or errored
func (s MediaSession) IsActive() bool {
	return s.Status != SessionIdle
}

// SessionObserver receives session state changes.
type SessionObserver interface {
	OnSessionChange(session MediaSession)
}

// NoOpSessionObserver discards session updates (for testing/batch operations).
type NoOpSessionObserver struct{}

func (NoOpSessionObserver) OnSessionChange(MediaSession) {}
