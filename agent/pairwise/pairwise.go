/*
Package pairwise holds the established point-to-point connections of the
client. The agent is the source of truth of the connections; Cache is only
the fast path in front of the agent's state query.
*/
package pairwise

import (
	"fmt"

	"github.com/findy-network/findy-agent-conn/agent/mesg"
)

// Connection is an established pairwise connection. It's immutable after the
// handshake has materialized it.
type Connection struct {
	MyDID         string `json:"my_did"`
	TheirDID      string `json:"their_did"`
	TheirVerkey   string `json:"their_vk"`
	TheirEndpoint string `json:"their_endpoint,omitempty"`
}

// FromEntry materializes the connection from the agent's pairwise entry.
func FromEntry(e *mesg.PairwiseEntry) *Connection {
	return &Connection{
		MyDID:         e.MyDID,
		TheirDID:      e.TheirDID,
		TheirVerkey:   e.Metadata.TheirVerkey,
		TheirEndpoint: e.Metadata.TheirEndpoint,
	}
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s <-> %s", c.MyDID, c.TheirDID)
}
