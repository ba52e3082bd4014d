package model

import "fmt"

// SessionState is the protocol phase of a session.
type SessionState int

// Session states. A session starts in StateLogin.
const (
	StateLogin SessionState = iota
	StateServerSelect
	StateCharacterSelect
	StatePlaying
	StateDisconnected
)

var sessionStateNames = map[SessionState]string{
	StateLogin:           "LOGIN",
	StateServerSelect:    "SERVER_SELECT",
	StateCharacterSelect: "CHARACTER_SELECT",
	StatePlaying:         "PLAYING",
	StateDisconnected:    "DISCONNECTED",
}

// String returns the upper-case state name.
func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

// ParseSessionState maps a state name to a SessionState.
func ParseSessionState(name string) (SessionState, error) {
	for s, n := range sessionStateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown session state %q", name)
}
