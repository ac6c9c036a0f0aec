package cmds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/findy-network/findy-agent-conn/agent/endp"
	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-agent-conn/client"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Cmd is the base of the commands which operate through the agent connection.
type Cmd struct {
	AgentURL   string `cmd_usage:"agent URL is required"`
	WalletName string `cmd_usage:"wallet name is required"`
	WalletKey  string `cmd_usage:"wallet key is required"`
	Timeout    time.Duration
}

func (c Cmd) Validate() error {
	if c.AgentURL == "" {
		return errors.New("agent URL cannot be empty")
	}
	addr, err := endp.NewClientAddr(c.AgentURL)
	if err != nil {
		return err
	}
	if !addr.Valid() {
		return errors.New("agent URL must name the service and the agent")
	}
	if c.WalletName == "" {
		return errors.New("wallet name cannot be empty")
	}
	return ValidateKey(c.WalletKey)
}

func ValidateKey(k string) error {
	if k == "" {
		return errors.New("wallet key cannot be empty")
	}
	return nil
}

type Result interface {
	JSON() ([]byte, error)
}

type Command interface {
	Validate() error
	Exec(w io.Writer) (r Result, err error)
}

// Connection builds a not yet connected agent connection from the command.
func (c Cmd) Connection(label string, opts ...client.Option) *client.Connection {
	return client.New(client.Config{
		AgentURL:   c.AgentURL,
		WalletName: c.WalletName,
		WalletKey:  c.WalletKey,
		Label:      label,
	}, opts...)
}

// Context returns the command's deadline context. Zero Timeout means
// utils.Settings.Timeout.
func (c Cmd) Context(parent context.Context) (context.Context, context.CancelFunc) {
	to := c.Timeout
	if to == 0 {
		to = utils.Settings.Timeout()
	}
	return context.WithTimeout(parent, to)
}

// Exec connects to the agent, runs f with the live connection and
// disconnects.
func (c Cmd) Exec(ctx context.Context, label string,
	f func(ctx context.Context, conn *client.Connection) (Result, error),
) (r Result, err error) {
	defer err2.Handle(&err, "%s", c.WalletName)

	conn := c.Connection(label)
	try.To(conn.Connect(ctx))
	defer func() {
		_ = conn.Disconnect()
	}()

	return f(ctx, conn)
}

// Fprintln is fmt.Fprintln but it allows writer to be nil. Note! it throws an
// error.
func Fprintln(w io.Writer, a ...interface{}) {
	if w != nil {
		try.To1(fmt.Fprintln(w, a...))
	}
}

// Fprintf is fmt.Fprintf but it allows writer to be nil. Note! it throws an
// error.
func Fprintf(w io.Writer, format string, a ...interface{}) {
	if w != nil {
		try.To1(fmt.Fprintf(w, format, a...))
	}
}

// Fprint is fmt.Fprint but it allows writer to be nil. Note! it throws an
// error.
func Fprint(w io.Writer, a ...interface{}) {
	if w != nil {
		try.To1(fmt.Fprint(w, a...))
	}
}

// Progress prints dots to w until the returned channel is closed.
func Progress(w io.Writer) chan<- struct{} {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(300 * time.Millisecond):
				Fprint(w, ".")
			}
		}
	}()
	return done
}
