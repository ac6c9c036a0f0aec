package connection

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/findy-network/findy-agent-conn/agent/pairwise"
	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/cmds"
	"github.com/findy-network/findy-agent-conn/server"
	"github.com/findy-network/findy-agent-conn/std/tails"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

var sim *server.TestServer

func TestMain(m *testing.M) {
	sim = server.StartTestServer()
	code := m.Run()
	sim.Close()
	os.Exit(code)
}

func base(agent, wallet string) cmds.Cmd {
	return cmds.Cmd{
		AgentURL:   sim.AgentURL(agent),
		WalletName: wallet,
		WalletKey:  wallet + "-key",
		Timeout:    5 * time.Second,
	}
}

// pair runs the invitation, accept and wait commands like two users would.
func pair(t *testing.T, inviter, invitee string) (ab, ba *pairwise.Connection) {
	t.Helper()

	var out bytes.Buffer
	r, err := InvitationCmd{Cmd: base(inviter, "alice"), Label: "alice"}.Exec(&out)
	require.NoError(t, err)
	token := r.(InvitationResult).Token
	require.Equal(t, token, strings.TrimSpace(out.String()))

	type accepted struct {
		r   cmds.Result
		err error
	}
	acc := make(chan accepted, 1)
	go func() {
		accept := AcceptCmd{Cmd: base(invitee, "bob"), Label: "bob", Invitation: token}
		r, err := accept.Exec(nil)
		acc <- accepted{r, err}
	}()

	wait := WaitCmd{Cmd: base(inviter, "alice"), Invitation: token, Retries: 3}
	require.NoError(t, wait.Validate())
	r, err = wait.Exec(nil)
	require.NoError(t, err)
	ab = r.(jsonResult).v.(*pairwise.Connection)

	a := <-acc
	require.NoError(t, a.err)
	ba = a.r.(jsonResult).v.(*pairwise.Connection)
	return ab, ba
}

func TestValidate(t *testing.T) {
	ok := cmds.Cmd{AgentURL: "ws://localhost:8080/agent/a", WalletName: "w", WalletKey: "k"}
	tests := []struct {
		name    string
		cmd     cmds.Command
		wantErr bool
	}{
		{"state", StateCmd{Cmd: ok}, false},
		{"state no url", StateCmd{Cmd: cmds.Cmd{WalletName: "w", WalletKey: "k"}}, true},
		{"state bad url", StateCmd{Cmd: cmds.Cmd{AgentURL: "ws://localhost:8080", WalletName: "w", WalletKey: "k"}}, true},
		{"state no key", StateCmd{Cmd: cmds.Cmd{AgentURL: ok.AgentURL, WalletName: "w"}}, true},
		{"accept no token", AcceptCmd{Cmd: ok}, true},
		{"accept bad token", AcceptCmd{Cmd: ok, Invitation: "nope"}, true},
		{"wait negative retries", WaitCmd{Cmd: ok, Invitation: "x", Retries: -1}, true},
		{"send no DID", SendCmd{Cmd: Cmd{Cmd: ok}, Class: "credex.Proof", Message: "{}"}, true},
		{"send no JSON", SendCmd{Cmd: Cmd{Cmd: ok, TheirDID: "D"}, Class: "credex.Proof", Message: "x"}, true},
		{"send", SendCmd{Cmd: Cmd{Cmd: ok, TheirDID: "D"}, Class: "credex.Proof", Message: "{}"}, false},
		{"receive no class", ReceiveCmd{Cmd: Cmd{Cmd: ok, TheirDID: "D"}}, true},
		{"tails serve no dir", TailsServeCmd{Cmd: Cmd{Cmd: ok, TheirDID: "D"}}, true},
		{"tails get no out", TailsGetCmd{Cmd: Cmd{Cmd: ok, TheirDID: "D"}, RevRegID: "R"}, true},
		{"tails get", TailsGetCmd{Cmd: Cmd{Cmd: ok, TheirDID: "D"}, RevRegID: "R", Out: "f"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestClassName(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.Equal(ClassName("credex.Proof"), pltype.ClassProof)
	assert.Equal(ClassName(pltype.ClassProof), pltype.ClassProof)
	assert.Equal(ClassName(""), "")
}

func TestStateCmd(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var out bytes.Buffer
	r, err := StateCmd{Cmd: base("st-alice", "alice")}.Exec(&out)
	assert.NoError(err)
	assert.That(r.(StateResult).IsReadyFor("alice"))
	assert.That(strings.Contains(out.String(), "alice"))
}

func TestPairSendReceive(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ab, ba := pair(t, "sr-alice", "sr-bob")
	assert.Equal(ab.TheirDID, ba.MyDID)
	assert.Equal(ab.MyDID, ba.TheirDID)

	send := SendCmd{
		Cmd:     Cmd{Cmd: base("sr-alice", "alice"), TheirDID: ab.TheirDID},
		Class:   "credex.ProofRequest",
		Message: `{"name":"age"}`,
	}
	assert.NoError(send.Validate())
	_, err := send.Exec(nil)
	assert.NoError(err)

	var out bytes.Buffer
	receive := ReceiveCmd{
		Cmd:   Cmd{Cmd: base("sr-bob", "bob"), TheirDID: ba.TheirDID},
		Class: "credex.ProofRequest",
	}
	_, err = receive.Exec(&out)
	assert.NoError(err)
	assert.Equal(strings.TrimSpace(out.String()), `{"name":"age"}`)

	send.Confirmed = true
	send.Class = pltype.ClassProof
	_, err = send.Exec(nil)
	assert.NoError(err)
}

func TestTails(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ab, ba := pair(t, "tl-alice", "tl-bob")

	dir := t.TempDir()
	content := []byte("tails file content")
	try.To(os.WriteFile(filepath.Join(dir, "R1"), content, 0o600))
	serve := TailsServeCmd{Cmd: Cmd{Cmd: base("tl-alice", "alice"), TheirDID: ab.TheirDID}, Dir: dir}

	resp, err := serve.serveFile(context.Background(), &tails.Request{RevRegID: "R1"})
	assert.NoError(err)
	assert.Equal(resp.TailsHash, TailsHash(content))
	_, err = serve.serveFile(context.Background(), &tails.Request{RevRegID: "../R1"})
	assert.Error(err)
	_, err = serve.serveFile(context.Background(), &tails.Request{RevRegID: "R1", TailsHash: "wrong"})
	assert.Error(err)

	// the serving side runs on its own connection until cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn := serve.Connection("alice")
	require.NoError(t, conn.Connect(ctx))
	defer func() { _ = conn.Disconnect() }()
	go func() {
		ch, err := conn.Remote(ctx, ab.TheirDID)
		if err == nil {
			_ = ch.ServeTails(ctx, serve.serveFile)
		}
	}()

	out := filepath.Join(t.TempDir(), "R1.tails")
	get := TailsGetCmd{Cmd: Cmd{Cmd: base("tl-bob", "bob"), TheirDID: ba.TheirDID},
		RevRegID: "R1", Out: out}
	_, err = get.Exec(nil)
	assert.NoError(err)
	assert.Equal(string(try.To1(os.ReadFile(out))), string(content))

	get.RevRegID = "R2"
	_, err = get.Exec(nil)
	assert.Error(err)
}
