package atelier

import "fmt"

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore persists the single bearer token between process runs.
// Implementations must be synchronous from the caller's perspective and must
// not expose the token through logs or String methods.
type CredentialStore interface {
	// Token returns the persisted token and whether one is present.
	Token() (string, bool)
	// SetToken stores or overwrites the token.
	SetToken(token string)
	// Clear removes the token. Clearing an empty store is a no-op.
	Clear()
}

// FlagStore persists named string values for feature toggles. A missing
// key reports found=false; storage failures degrade to missing rather
// than surfacing errors to presentational code.
type FlagStore interface {
	Get(name string) (value string, found bool)
	Set(name, value string)
}

// SessionReader exposes the current session snapshot to read-only
// consumers such as route guards.
type SessionReader interface {
	Current() Session
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ATELIER "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ATELIER "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ATELIER "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ATELIER "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
