package authflow

// Phase is the position of a login attempt in the two-step OTP flow.
type Phase int

const (
	Idle Phase = iota
	RequestingCode
	AwaitingCode
	VerifyingCode
	Authenticated
	// Failed follows a failed code request. It accepts the same operations as Idle.
	Failed
)

var phaseNames = map[Phase]string{
	Idle:           "idle",
	RequestingCode: "requesting_code",
	AwaitingCode:   "awaiting_code",
	VerifyingCode:  "verifying_code",
	Authenticated:  "authenticated",
	Failed:         "failed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// InFlight reports whether a network call owns the attempt.
func (p Phase) InFlight() bool {
	return p == RequestingCode || p == VerifyingCode
}

// EmailStep reports whether the view should collect an email address.
func (p Phase) EmailStep() bool {
	return p == Idle || p == RequestingCode || p == Failed
}
