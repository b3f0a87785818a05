package atelier

import "strconv"

// togglePrefix namespaces persisted toggle keys.
const togglePrefix = "toggle."

// Toggles is the feature toggle store: independent cosmetic flags with
// default-true semantics. It never consults session or authorization state,
// and guards never consult it.
type Toggles struct {
	store  FlagStore
	logger Logger
}

// NewToggles creates a toggle store. A nil FlagStore is tolerated: every
// flag reads as enabled and writes are dropped.
func NewToggles(store FlagStore, opts ...ToggleOption) *Toggles {
	t := &Toggles{
		store:  store,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	return t
}

// ToggleOption customizes Toggles construction.
type ToggleOption func(*Toggles)

// WithToggleLogger overrides the toggle logger.
func WithToggleLogger(logger Logger) ToggleOption {
	return func(t *Toggles) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Enabled reports whether the named toggle is on. A toggle is disabled only
// when the persisted value is exactly the literal "false"; a missing key,
// a different value, or an unavailable store all read as enabled.
func (t *Toggles) Enabled(name string) bool {
	if t == nil || t.store == nil {
		return true
	}

	value, found := t.store.Get(togglePrefix + name)
	if !found {
		return true
	}

	return value != "false"
}

// Set persists the toggle as its string form.
func (t *Toggles) Set(name string, enabled bool) {
	if t == nil || t.store == nil {
		return
	}

	t.store.Set(togglePrefix+name, strconv.FormatBool(enabled))
}
