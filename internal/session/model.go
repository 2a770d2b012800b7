package session

// Value is a stored string that may be absent.
type Value struct {
	String  string
	Present bool
}

// Some returns a present Value.
func Some(s string) Value {
	return Value{String: s, Present: true}
}

// NonEmpty reports whether v is present and not the empty string.
func (v Value) NonEmpty() bool {
	return v.Present && v.String != ""
}

// Stored is the persisted session record.
type Stored struct {
	Token      Value // id_token (or access_token) returned by the provider
	Expiration Value // Capture time marker, opaque
	State      Value // State echoed by the provider, kept for correlation
}

// State is what a UI surface renders. It is always recomputed from the
// store and never modified in place.
type State struct {
	LoggedIn   bool
	Token      Value
	Expiration Value
}

// StateFrom computes the UI state for a stored record.
func StateFrom(s Stored) State {
	if !s.Token.NonEmpty() || !s.Expiration.NonEmpty() {
		return State{}
	}

	return State{
		LoggedIn:   true,
		Token:      s.Token,
		Expiration: s.Expiration,
	}
}
