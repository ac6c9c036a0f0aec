// Package tails is the data model of the out-of-band tails file transfer:
// one request answered by one response.
package tails

import "github.com/findy-network/findy-agent-conn/agent/pltype"

// Request asks the counterparty for the tails file of a revocation registry.
type Request struct {
	RevRegID  string `json:"revRegId"`
	TailsHash string `json:"tailsHash,omitempty"`
}

// Response carries the tails file content. Error is set when the serving
// party couldn't produce the file.
type Response struct {
	RevRegID  string `json:"revRegId"`
	TailsHash string `json:"tailsHash,omitempty"`
	Content   []byte `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (Request) ClassName() string  { return pltype.ClassTailsRequest }
func (Response) ClassName() string { return pltype.ClassTailsResponse }
