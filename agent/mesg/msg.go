package mesg

import (
	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-common-go/dto"
)

// Msg is an outbound message to the agent.
type Msg struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`

	Name       string `json:"name,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
	Invite     string `json:"invite,omitempty"`
	Label      string `json:"label,omitempty"`
	Key        string `json:"key,omitempty"`
	DID        string `json:"did,omitempty"`

	To      string `json:"to,omitempty"`
	Class   string `json:"@class,omitempty"`
	Message string `json:"message,omitempty"`
}

func newMsg(t string) *Msg {
	return &Msg{Type: t, ID: utils.UUID()}
}

func (m *Msg) JSON() []byte {
	return dto.ToJSONBytes(m)
}

func (m *Msg) String() string {
	return m.Type + " id:" + m.ID
}

func NewStateRequest() *Msg {
	return newMsg(pltype.AdminStateRequest)
}

func NewWalletConnect(name, passphrase string) *Msg {
	m := newMsg(pltype.WalletConnect)
	m.Name = name
	m.Passphrase = passphrase
	return m
}

func NewWalletDisconnect() *Msg {
	return newMsg(pltype.WalletDisconnect)
}

func NewGenerateInvite() *Msg {
	return newMsg(pltype.ConnectionsGenerateInvite)
}

func NewReceiveInvite(invite, label string) *Msg {
	m := newMsg(pltype.ConnectionsReceiveInvite)
	m.Invite = invite
	m.Label = label
	return m
}

// NewSendRequest builds the connection request to the invitation whose
// routing key is key.
func NewSendRequest(key, label string) *Msg {
	m := newMsg(pltype.ConnectionsSendRequest)
	m.Key = key
	m.Label = label
	return m
}

// NewSendResponse builds the connection response to the requester did.
func NewSendResponse(did string) *Msg {
	m := newMsg(pltype.ConnectionsSendResponse)
	m.DID = did
	return m
}

// NewSendMessage wraps the already serialized payload to the generic payload
// message. The payload is JSON encoded once more as a string.
func NewSendMessage(to, class string, payload []byte) *Msg {
	m := newMsg(pltype.BasicMessageSend)
	m.To = to
	m.Class = class
	m.Message = string(payload)
	return m
}
