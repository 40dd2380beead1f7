package world

// State is the world session lifecycle stage.
type State int32

const (
	StateConnecting     State = iota // dialing the realm
	StateAwaitChallenge              // connected, waiting for SMSG_AUTH_CHALLENGE
	StateAuthenticating              // CMSG_AUTH_SESSION sent, headers encrypted
	StateSteady                      // AUTH_OK received, character list requested
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateAwaitChallenge:
		return "AWAIT_CHALLENGE"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateSteady:
		return "STEADY"
	default:
		return "UNKNOWN"
	}
}
