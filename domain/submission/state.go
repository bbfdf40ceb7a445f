package submission

import (
	"video-beeper/domain/audio"
	"video-beeper/domain/video"
)

// State is the request lifecycle of a session
type State int

// Request states. Loading always precedes Succeeded or Failed.
const (
	StateIdle State = iota
	StateLoading
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is the single region a renderer shows for a snapshot
type View int

// Renderable views
const (
	ViewNone View = iota
	ViewLoading
	ViewError
	ViewResult
)

// Result is the outcome of a successful submission
type Result struct {
	Resource     audio.Resource
	FlaggedWords []string
	Info         *audio.Info // nil when the audio could not be probed
}

// Snapshot is a consistent copy of session state.
// Loading never carries an error or a result; only Succeeded carries a
// result; ErrorMessage is set in Failed, or in any other settled state after
// a validation failure.
type Snapshot struct {
	State        State
	FileName     string
	Threshold    video.Threshold
	ErrorMessage string
	Result       *Result
}

// View picks the one region to show
func (s Snapshot) View() View {
	switch {
	case s.State == StateLoading:
		return ViewLoading
	case s.ErrorMessage != "":
		return ViewError
	case s.State == StateSucceeded && s.Result != nil:
		return ViewResult
	default:
		return ViewNone
	}
}

// FlaggedWords returns the words of the current result, or an empty slice
func (s Snapshot) FlaggedWords() []string {
	if s.Result == nil {
		return []string{}
	}
	return s.Result.FlaggedWords
}
