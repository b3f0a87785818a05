package atelier

import (
	"context"
	"time"
)

// ActivityEventType enumerates session activity categories.
type ActivityEventType string

const (
	ActivityEventBootstrap     ActivityEventType = "session.bootstrap"
	ActivityEventLoginSuccess  ActivityEventType = "session.login.success"
	ActivityEventLoginFailure  ActivityEventType = "session.login.failure"
	ActivityEventSignupSuccess ActivityEventType = "session.signup.success"
	ActivityEventSignupFailure ActivityEventType = "session.signup.failure"
	ActivityEventLogout        ActivityEventType = "session.logout"
	ActivityEventRefresh       ActivityEventType = "session.refresh"
)

// ActivityEvent captures audit-friendly information about a session action.
// Metadata never includes token material.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
