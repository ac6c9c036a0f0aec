/*
Package pltype holds the closed set of message types the agent connection
speaks with its mediating agent, and the Category enum every inbound type maps
to. Types are parsed once at the boundary, after that the code switches on the
Category, never on strings.
*/
package pltype

// Protocol constants
const (
	Aries = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec"

	ProtocolAdmin            = "admin"
	ProtocolWalletConnection = "admin_walletconnection"
	ProtocolConnections      = "admin_connections"
	ProtocolBasicMessage     = "admin_basicmessage"

	Admin            = Aries + "/" + ProtocolAdmin + "/1.0/"
	WalletConnection = Aries + "/" + ProtocolWalletConnection + "/1.0/"
	Connections      = Aries + "/" + ProtocolConnections + "/1.0/"
	BasicMessage     = Aries + "/" + ProtocolBasicMessage + "/1.0/"
)

// Outbound message types, from us to the agent.
const (
	AdminStateRequest = Admin + "state_request"

	WalletConnect    = WalletConnection + "connect"
	WalletDisconnect = WalletConnection + "disconnect"

	ConnectionsGenerateInvite = Connections + "generate_invite"
	ConnectionsReceiveInvite  = Connections + "receive_invite"
	ConnectionsSendRequest    = Connections + "send_request"
	ConnectionsSendResponse   = Connections + "send_response"

	BasicMessageSend = BasicMessage + "send_message"
)

// Inbound message types, from the agent to us.
const (
	AdminState = Admin + "state"

	ConnectionsInviteGenerated  = Connections + "invite_generated"
	ConnectionsInviteReceived   = Connections + "invite_received"
	ConnectionsRequestSent      = Connections + "request_sent"
	ConnectionsRequestReceived  = Connections + "request_received"
	ConnectionsResponseSent     = Connections + "response_sent"
	ConnectionsResponseReceived = Connections + "response_received"

	BasicMessageSent     = BasicMessage + "message_sent"
	BasicMessageReceived = BasicMessage + "message_received"
)

// Category tells how the correlation key of an inbound frame is derived.
type Category int

const (
	Unknown Category = iota

	// Simple frames are keyed by their type alone: at most one outstanding
	// request of that kind per connection.
	Simple

	// ByConnectionKey frames are keyed by type and the invite's public key.
	ByConnectionKey

	// ByDID frames are keyed by type and the counterparty DID.
	ByDID

	// Payload frames wrap an application object. They are keyed by the
	// object's class name and the sender DID.
	Payload
)

func (c Category) String() string {
	return [...]string{"Unknown", "Simple", "ByConnectionKey", "ByDID", "Payload"}[c]
}

var categories = map[string]Category{
	AdminState:                  Simple,
	ConnectionsInviteGenerated:  Simple,
	ConnectionsRequestReceived:  Simple,
	ConnectionsRequestSent:      Simple,
	BasicMessageSent:            Simple,
	ConnectionsInviteReceived:   ByConnectionKey,
	ConnectionsResponseReceived: ByConnectionKey,
	ConnectionsResponseSent:     ByDID,
	BasicMessageReceived:        Payload,
}

// CategoryOf returns the category of the inbound type t, or Unknown.
func CategoryOf(t string) Category {
	return categories[t]
}

// InboundTypes returns every known inbound type.
func InboundTypes() []string {
	types := make([]string, 0, len(categories))
	for t := range categories {
		types = append(types, t)
	}
	return types
}

// Payload class names. Business payloads travel inside the generic payload
// wrapper and these are their declared classes.
const (
	ClassPrefix = "fi.findy.conn."

	ClassCredentialOffer   = ClassPrefix + "credex.CredentialOffer"
	ClassCredentialRequest = ClassPrefix + "credex.CredentialRequest"
	ClassCredential        = ClassPrefix + "credex.Credential"
	ClassProofRequest      = ClassPrefix + "credex.ProofRequest"
	ClassProof             = ClassPrefix + "credex.Proof"

	ClassTailsRequest  = ClassPrefix + "tails.TailsRequest"
	ClassTailsResponse = ClassPrefix + "tails.TailsResponse"
)
