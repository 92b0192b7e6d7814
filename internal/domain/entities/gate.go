package entities

// GateState is the state of the verification gate for one evaluation
type GateState int

const (
	GateLoading GateState = iota
	GateRedirecting
	GateGranted
)

// String returns the state name used in logs and metrics
func (s GateState) String() string {
	switch s {
	case GateLoading:
		return "loading"
	case GateRedirecting:
		return "redirecting"
	case GateGranted:
		return "granted"
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is allowed
func (s GateState) IsTerminal() bool {
	return s == GateRedirecting || s == GateGranted
}

// Flash carries context from a redirect to the login page
type Flash struct {
	Message           string `json:"message"`
	Email             string `json:"email,omitempty"`
	NeedsVerification bool   `json:"needs_verification,omitempty"`
}
