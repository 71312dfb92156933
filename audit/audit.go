// Package audit composes the event payloads that authentication operations
// hand to the system-log collaborator. The Recorder seam is what a
// persistent log backend plugs into.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event is one audit entry: who did what, from where, against which module.
type Event struct {
	AccountID string    `json:"user_id"`
	RoleID    string    `json:"role_id"`
	IP        string    `json:"user_ip"`
	Module    string    `json:"module"`
	Action    string    `json:"action"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// LogRecorder writes audit events to the structured log. It is the default
// recorder when no persistent one is wired in.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(_ context.Context, event Event) error {
	r.log.Info().
		Str("user_id", event.AccountID).
		Str("role_id", event.RoleID).
		Str("user_ip", event.IP).
		Str("module", event.Module).
		Str("action", event.Action).
		Time("at", event.At).
		Msg("audit")
	return nil
}

// NopRecorder discards events. Test helper.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) error { return nil }
