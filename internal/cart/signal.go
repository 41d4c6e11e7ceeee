package cart

import "github.com/rs/zerolog"

// Signal is the feedback cue a mutation produces. The HTTP layer forwards it
// to the client as a haptic hint; other frontends may ignore it.
type Signal string

const (
	SignalImpactLight  Signal = "light"
	SignalImpactMedium Signal = "medium"
	SignalNotifySuccess Signal = "success"
)

// Signaler receives mutation feedback cues. Implementations must not block.
type Signaler interface {
	Emit(userID int64, s Signal)
}

// NopSignaler drops every cue.
type NopSignaler struct{}

func (NopSignaler) Emit(int64, Signal) {}

// LogSignaler records cues at debug level. Useful in environments without a
// real feedback channel.
type LogSignaler struct {
	Logger zerolog.Logger
}

func (l LogSignaler) Emit(userID int64, s Signal) {
	l.Logger.Debug().Int64("tg_user_id", userID).Str("signal", string(s)).Msg("cart signal")
}
