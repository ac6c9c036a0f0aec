/*
Package mesg is the envelope layer of the agent connection. Inbound frames are
decoded once at the boundary to Frame, which carries its Category. Classify
maps a Frame to the correlation key the mailbox uses. Outbound messages are
built with the New* functions.

All of the inbound frame types share one statically typed Go struct; the
fields which a type doesn't use are empty.
*/
package mesg

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/core"
)

// Frame is an inbound message from the agent. It lives only for the
// duration of the dispatch and the wait.
type Frame struct {
	Type  string `json:"@type"`
	ID    string `json:"@id,omitempty"`
	Error string `json:"error,omitempty"`

	ConnectionKey string `json:"connection_key,omitempty"`
	DID           string `json:"did,omitempty"`
	TheirDID      string `json:"their_did,omitempty"`
	Label         string `json:"label,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
	Invite        string `json:"invite,omitempty"`

	// generic payload wrapper
	Class   string          `json:"@class,omitempty"`
	From    string          `json:"from,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`

	Content *State `json:"content,omitempty"`

	Category pltype.Category `json:"-"`
}

// Decode decodes the frame and resolves its category. An undecodable frame
// or a frame without @type is a ClassificationError.
func Decode(data []byte) (f *Frame, err error) {
	f = new(Frame)
	if err = json.Unmarshal(data, f); err != nil {
		return nil, &core.ClassificationError{Reason: err.Error()}
	}
	if f.Type == "" {
		return nil, &core.ClassificationError{Reason: "@type missing"}
	}
	f.Category = pltype.CategoryOf(f.Type)
	return f, nil
}

// Err returns the error the agent reported in the frame, or nil.
func (f *Frame) Err() error {
	if f.Error == "" {
		return nil
	}
	return errors.New(f.Error)
}

// Payload returns the inner payload of the generic payload wrapper. The
// message field is itself JSON encoded, but a plain JSON object is accepted
// as well.
func (f *Frame) Payload() (json.RawMessage, error) {
	if len(f.Message) == 0 {
		return nil, errors.New("frame has no payload")
	}
	if f.Message[0] != '"' {
		return f.Message, nil
	}
	var s string
	if err := json.Unmarshal(f.Message, &s); err != nil {
		return nil, fmt.Errorf("payload string: %w", err)
	}
	return json.RawMessage(s), nil
}

// State returns the state content of the state frame.
func (f *Frame) State() (*State, error) {
	if f.Type != pltype.AdminState {
		return nil, fmt.Errorf("not a state frame: %s", f.Type)
	}
	if f.Content == nil {
		return &State{}, nil
	}
	return f.Content, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s(%s) id:%s", f.Type, f.Category, f.ID)
}
