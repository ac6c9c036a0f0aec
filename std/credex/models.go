/*
Package credex has the credential exchange payloads the remote party channel
carries. The connection layer doesn't look inside them: each is raw JSON
produced and consumed by the issuer, holder and verifier layers above us. The
types exist to give every payload its class name, which is part of the
correlation key.
*/
package credex

import (
	"encoding/json"

	"github.com/findy-network/findy-agent-conn/agent/pltype"
)

// Payload is a business object travelling over a pairwise channel.
type Payload interface {
	ClassName() string
}

type CredentialOffer struct{ json.RawMessage }

type CredentialRequest struct{ json.RawMessage }

type Credential struct{ json.RawMessage }

type ProofRequest struct{ json.RawMessage }

type Proof struct{ json.RawMessage }

func (CredentialOffer) ClassName() string   { return pltype.ClassCredentialOffer }
func (CredentialRequest) ClassName() string { return pltype.ClassCredentialRequest }
func (Credential) ClassName() string        { return pltype.ClassCredential }
func (ProofRequest) ClassName() string      { return pltype.ClassProofRequest }
func (Proof) ClassName() string             { return pltype.ClassProof }
