package handshake

// Step is the state of a handshake chain. Every step waits for one frame or
// sends one message; a failing step aborts the whole chain.
type Step int

const (
	Idle Step = iota
	QueryingState
	ConnectingWallet
	DecodingInvite
	ReceivingInvite
	AwaitingInviteReceived
	SendingRequest
	AwaitingResponseReceived
	AwaitingRequestReceived
	SendingResponse
	FindingPairwise
	AwaitingResponseSent
	GeneratingInvite
	AwaitingInvite
	Done
)

func (s Step) String() string {
	return [...]string{
		"idle",
		"querying state",
		"connecting wallet",
		"decoding invite",
		"receiving invite",
		"awaiting invite_received",
		"sending request",
		"awaiting response_received",
		"awaiting request_received",
		"sending response",
		"finding pairwise",
		"awaiting response_sent",
		"generating invite",
		"awaiting invite_generated",
		"done",
	}[s]
}
