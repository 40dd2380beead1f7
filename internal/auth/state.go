package auth

// State is the login session step the worker is in.
type State int32

const (
	StateInvalid    State = iota // not started, or failed before the first send
	StateChallenge               // logon challenge sent
	StateLogonProof              // SRP6 proof sent
	StateRealmList               // authenticated, polling the realm list
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "INVALID"
	case StateChallenge:
		return "CHALLENGE"
	case StateLogonProof:
		return "LOGON_PROOF"
	case StateRealmList:
		return "REALM_LIST"
	default:
		return "UNKNOWN"
	}
}
