// Taken from aries-framework-go, and heavily modified. We keep only the
// fields our agent protocol uses.

// Package invitation is for invitation data model and its out-of-band token
// format: <endpoint-url>?c_i=<base64 JSON>
package invitation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

// Type of the connection invitation
const Type = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/connections/1.0/invitation"

// QueryParam is the URL query parameter holding the encoded invitation.
const QueryParam = "c_i"

const verKeyLength = 32

// Invitation model
//
// Invitation defines DID exchange invitation message
// https://github.com/hyperledger/aries-rfcs/tree/master/features/0160-connection-protocol#0-invitation-to-connect
type Invitation struct {
	// the Type of the connection invitation
	Type string `json:"@type,omitempty"`

	// the ID of the connection invitation
	ID string `json:"@id,omitempty"`

	// the Label of the connection invitation
	Label string `json:"label,omitempty"`

	// the RecipientKeys for the connection invitation
	RecipientKeys []string `json:"recipientKeys,omitempty"`

	// the Service endpoint of the connection invitation
	ServiceEndpoint string `json:"serviceEndpoint,omitempty"`

	// the RoutingKeys of the connection invitation
	RoutingKeys []string `json:"routingKeys,omitempty"`
}

// PublicKey returns the invitation's public key, the first recipient key.
func (inv Invitation) PublicKey() string {
	if len(inv.RecipientKeys) == 0 {
		return ""
	}
	return inv.RecipientKeys[0]
}

// Validate checks that the invitation has a usable public key.
func (inv Invitation) Validate() (err error) {
	defer err2.Handle(&err, "validate invitation")

	if inv.PublicKey() == "" {
		return errors.New("recipient keys cannot be empty")
	}
	key := try.To1(base58.Decode(inv.PublicKey()))
	if len(key) != verKeyLength {
		return fmt.Errorf("public key length %d, want %d", len(key), verKeyLength)
	}
	return nil
}

// Build builds the out-of-band token from the invitation. The endpoint part
// is the invitation's service endpoint.
func Build(inv Invitation) (s string, err error) {
	defer err2.Handle(&err, "build invitation")

	try.To(inv.Validate())
	if inv.Type == "" {
		inv.Type = Type
	}
	if inv.ID == "" {
		inv.ID = utils.UUID()
	}
	u := try.To1(url.Parse(inv.ServiceEndpoint))
	q := u.Query()
	q.Set(QueryParam, utils.EncodeB64(dto.ToJSONBytes(inv)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Translate decodes the out-of-band token to the Invitation. A plain JSON
// invitation is accepted as well.
func Translate(s string) (inv Invitation, err error) {
	defer err2.Handle(&err, "translate invitation")

	s = strings.TrimSpace(s)
	var data []byte
	if strings.HasPrefix(s, "{") {
		data = []byte(s)
	} else {
		u := try.To1(url.Parse(s))
		encoded := u.Query().Get(QueryParam)
		if encoded == "" {
			return inv, fmt.Errorf("no %s parameter in invitation URL", QueryParam)
		}
		data = try.To1(utils.DecodeB64(encoded))
	}
	try.To(json.Unmarshal(data, &inv))
	try.To(inv.Validate())
	return inv, nil
}

// PublicKey returns the public key from the invitation token s.
func PublicKey(s string) (key string, err error) {
	inv, err := Translate(s)
	if err != nil {
		return "", err
	}
	return inv.PublicKey(), nil
}
