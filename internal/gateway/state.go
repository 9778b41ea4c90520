package gateway

// State is the position of a payment session in the hosted-page round trip.
type State string

const (
	StateInitiated         State = "INITIATED"
	StateRedirecting       State = "REDIRECTING"
	StateCallbackReceived  State = "CALLBACK_RECEIVED"
	StateOrderCreating     State = "ORDER_CREATING"
	StateSucceeded         State = "SUCCEEDED"
	StateFailed            State = "FAILED"
	StateOrderCreateFailed State = "ORDER_CREATE_FAILED"
)

var transitions = map[State][]State{
	StateInitiated:        {StateRedirecting},
	StateRedirecting:      {StateCallbackReceived},
	StateCallbackReceived: {StateOrderCreating, StateFailed},
	StateOrderCreating:    {StateSucceeded, StateOrderCreateFailed},
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateOrderCreateFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether next directly follows s.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus tracks what is known about the payment itself, independent of the order.
type PaymentStatus string

const (
	PaymentInitiated               PaymentStatus = "initiated"
	PaymentRedirected              PaymentStatus = "gateway-redirected"
	PaymentCallbackReceived        PaymentStatus = "callback-received"
	PaymentVerified                PaymentStatus = "verified"
	PaymentVerificationUnavailable PaymentStatus = "verification-unavailable"
)
