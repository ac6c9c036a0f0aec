/*
Package connection has the commands which run the agent connection
operations: state query, pairing, payload exchange and tails transfer. Every
command connects to the agent for the duration of its Exec.
*/
package connection

import (
	"errors"
	"strings"

	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/cmds"
	"github.com/findy-network/findy-common-go/dto"
)

// Cmd is the base of the commands which use a pairwise connection.
type Cmd struct {
	cmds.Cmd
	TheirDID string
}

func (c Cmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.TheirDID == "" {
		return errors.New("their DID cannot be empty")
	}
	return nil
}

// ClassName returns the payload class name. Short names like
// credex.Proof are completed with pltype.ClassPrefix.
func ClassName(class string) string {
	if class == "" || strings.HasPrefix(class, pltype.ClassPrefix) {
		return class
	}
	return pltype.ClassPrefix + class
}

type jsonResult struct {
	v interface{}
}

func (r jsonResult) JSON() ([]byte, error) {
	return dto.ToJSONBytes(r.v), nil
}
