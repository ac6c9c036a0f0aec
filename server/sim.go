package server

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/findy-network/findy-agent-conn/agent/endp"
	"github.com/findy-network/findy-agent-conn/agent/mesg"
	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/agent/trans"
	"github.com/findy-network/findy-agent-conn/std/didexchange/invitation"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
	"golang.org/x/net/websocket"
)

// AgentPath is the URL path prefix of the simulated agents. The rest of the
// path names the agent.
const AgentPath = "/agent/"

// AgentSim simulates the mediating agents of any number of parties. It
// speaks the admin protocol over websocket and relays the pairing and the
// payload traffic between its agents. Every agent has one wallet and its
// state survives the socket, so a reconnecting client finds its agent as it
// left it.
type AgentSim struct {
	endpoint string // base URL written to the invitations

	agents  map[string]*agent // by agent name
	byDID   map[string]*agent // by the DIDs the agents own
	invites map[string]*invite

	sync.Mutex
}

type agent struct {
	name string

	walletName  string
	walletKey   string
	initialized bool
	pairwise    []mesg.PairwiseEntry

	conn   trans.Conn
	outbox []*mesg.Frame // queued while the agent has no socket
}

type invite struct {
	key      string
	inviter  *agent
	label    string
	requests map[string]*request // by the requester's DID
}

type request struct {
	did     string
	verkey  string
	label   string
	invitee *agent
}

func NewAgentSim() *AgentSim {
	return &AgentSim{
		agents:  make(map[string]*agent),
		byDID:   make(map[string]*agent),
		invites: make(map[string]*invite),
	}
}

// SetEndpoint sets the service endpoint written to the invitations.
func (s *AgentSim) SetEndpoint(endpoint string) {
	s.Lock()
	defer s.Unlock()
	s.endpoint = endpoint
}

// Handler returns the websocket handler serving AgentPath.
func (s *AgentSim) Handler() websocket.Handler {
	return s.serve
}

func (s *AgentSim) serve(ws *websocket.Conn) {
	addr := endp.NewServerAddr(ws.Request().URL.Path)
	if !addr.Valid() {
		glog.Warningln("agent name missing:", ws.Request().URL.Path)
		_ = ws.Close()
		return
	}
	name := addr.Agent
	conn := trans.NewWsConn(ws)
	s.attach(name, conn)
	defer s.detach(name, conn)

	for {
		data, err := conn.Receive()
		if err != nil {
			glog.V(3).Infof("agent %s socket closed: %v", name, err)
			return
		}
		s.handle(name, data)
	}
}

func (s *AgentSim) agent(name string) *agent {
	a, ok := s.agents[name]
	if !ok {
		a = &agent{name: name}
		s.agents[name] = a
	}
	return a
}

func (s *AgentSim) attach(name string, conn trans.Conn) {
	s.Lock()
	defer s.Unlock()

	a := s.agent(name)
	if a.conn != nil {
		_ = a.conn.Close()
	}
	a.conn = conn
	glog.V(2).Infof("agent %s connected, %d queued frames", name, len(a.outbox))
	outbox := a.outbox
	a.outbox = nil
	for _, f := range outbox {
		s.send(a, f)
	}
}

func (s *AgentSim) detach(name string, conn trans.Conn) {
	s.Lock()
	defer s.Unlock()

	if a := s.agents[name]; a != nil && a.conn == conn {
		a.conn = nil
	}
	_ = conn.Close()
}

// DropConnections closes every agent socket, the clients see the remote
// close.
func (s *AgentSim) DropConnections() {
	s.Lock()
	defer s.Unlock()
	for _, a := range s.agents {
		if a.conn != nil {
			_ = a.conn.Close()
			a.conn = nil
		}
	}
}

// Online tells if the named agent has a socket.
func (s *AgentSim) Online(name string) bool {
	s.Lock()
	defer s.Unlock()
	a, ok := s.agents[name]
	return ok && a.conn != nil
}

// State returns a copy of the agent's state content.
func (s *AgentSim) State(name string) mesg.State {
	s.Lock()
	defer s.Unlock()
	return s.agent(name).state()
}

// send writes the frame to the agent's socket or queues it. Note! It
// doesn't lock.
func (s *AgentSim) send(a *agent, f *mesg.Frame) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if a.conn == nil {
		a.outbox = append(a.outbox, f)
		return
	}
	if err := a.conn.Send(dto.ToJSONBytes(f)); err != nil {
		glog.Warningf("agent %s send error, frame queued: %v", a.name, err)
		a.outbox = append(a.outbox, f)
	}
}

func (s *AgentSim) handle(name string, data []byte) {
	s.Lock()
	defer s.Unlock()

	a := s.agent(name)
	defer err2.Catch(func(err error) error {
		glog.Warningf("agent %s: %v", name, err)
		return nil
	})

	var m mesg.Msg
	try.To(json.Unmarshal(data, &m))
	glog.V(3).Infof("agent %s <- %s", name, m.Type)

	switch m.Type {
	case pltype.AdminStateRequest:
		st := a.state()
		s.send(a, &mesg.Frame{Type: pltype.AdminState, Content: &st})
	case pltype.WalletConnect:
		s.walletConnect(a, &m)
	case pltype.WalletDisconnect:
		a.initialized = false
	case pltype.ConnectionsGenerateInvite:
		s.generateInvite(a)
	case pltype.ConnectionsReceiveInvite:
		s.receiveInvite(a, &m)
	case pltype.ConnectionsSendRequest:
		s.sendRequest(a, &m)
	case pltype.ConnectionsSendResponse:
		s.sendResponse(a, &m)
	case pltype.BasicMessageSend:
		s.sendMessage(a, &m)
	default:
		glog.Warningf("agent %s: unknown message type: %s", name, m.Type)
	}
}

func (a *agent) state() mesg.State {
	st := mesg.State{Initialized: a.initialized}
	if a.initialized {
		st.AgentName = a.walletName
		st.PairwiseConnections = append([]mesg.PairwiseEntry(nil), a.pairwise...)
	}
	return st
}

func (s *AgentSim) walletConnect(a *agent, m *mesg.Msg) {
	if a.walletName == "" {
		a.walletName, a.walletKey = m.Name, m.Passphrase
	}
	if a.walletName != m.Name || a.walletKey != m.Passphrase {
		glog.Warningf("agent %s: wallet %q access denied", a.name, m.Name)
		return
	}
	a.initialized = true
	glog.V(1).Infof("agent %s: wallet %s open", a.name, m.Name)
}

func (s *AgentSim) generateInvite(a *agent) {
	key := newVerkey()
	token := try.To1(invitation.Build(invitation.Invitation{
		Label:           a.walletName,
		RecipientKeys:   []string{key},
		ServiceEndpoint: s.endpointOf(a),
	}))
	s.invites[key] = &invite{key: key, inviter: a, label: a.walletName,
		requests: make(map[string]*request)}
	s.send(a, &mesg.Frame{Type: pltype.ConnectionsInviteGenerated, Invite: token})
}

func (s *AgentSim) receiveInvite(a *agent, m *mesg.Msg) {
	inv := try.To1(invitation.Translate(m.Invite))
	key := inv.PublicKey()
	f := &mesg.Frame{Type: pltype.ConnectionsInviteReceived, ConnectionKey: key,
		Label: inv.Label, Endpoint: inv.ServiceEndpoint}
	if _, ok := s.invites[key]; !ok {
		f.Error = "unknown invitation"
	}
	s.send(a, f)
}

func (s *AgentSim) sendRequest(a *agent, m *mesg.Msg) {
	inv, ok := s.invites[m.Key]
	if !ok {
		s.send(a, &mesg.Frame{Type: pltype.ConnectionsResponseReceived,
			ConnectionKey: m.Key, Error: "unknown invitation"})
		return
	}
	r := &request{did: newDID(), verkey: newVerkey(), label: m.Label, invitee: a}
	inv.requests[r.did] = r
	s.byDID[r.did] = a

	s.send(a, &mesg.Frame{Type: pltype.ConnectionsRequestSent})
	s.send(inv.inviter, &mesg.Frame{Type: pltype.ConnectionsRequestReceived,
		DID: r.did, ConnectionKey: inv.key, Label: m.Label})
}

func (s *AgentSim) sendResponse(a *agent, m *mesg.Msg) {
	inv, r := s.findRequest(a, m.DID)
	if r == nil {
		s.send(a, &mesg.Frame{Type: pltype.ConnectionsResponseSent, DID: m.DID,
			Error: "no connection request from " + m.DID})
		return
	}
	delete(inv.requests, r.did)

	myDID := newDID()
	s.byDID[myDID] = a

	a.pairwise = append(a.pairwise, mesg.PairwiseEntry{
		MyDID: myDID, TheirDID: r.did,
		Metadata: mesg.PairwiseMeta{
			TheirVerkey:   r.verkey,
			TheirEndpoint: s.endpointOf(r.invitee),
			ConnectionKey: inv.key,
			Label:         r.label,
		},
	})
	r.invitee.pairwise = append(r.invitee.pairwise, mesg.PairwiseEntry{
		MyDID: r.did, TheirDID: myDID,
		Metadata: mesg.PairwiseMeta{
			TheirVerkey:   inv.key,
			TheirEndpoint: s.endpointOf(a),
			ConnectionKey: inv.key,
			Label:         inv.label,
		},
	})
	glog.V(1).Infof("pairwise %s(%s) <-> %s(%s)", a.name, myDID,
		r.invitee.name, r.did)

	s.send(a, &mesg.Frame{Type: pltype.ConnectionsResponseSent, DID: r.did})
	s.send(r.invitee, &mesg.Frame{Type: pltype.ConnectionsResponseReceived,
		ConnectionKey: inv.key, TheirDID: myDID})
}

func (s *AgentSim) findRequest(a *agent, did string) (*invite, *request) {
	for _, inv := range s.invites {
		if inv.inviter != a {
			continue
		}
		if r, ok := inv.requests[did]; ok {
			return inv, r
		}
	}
	return nil, nil
}

func (s *AgentSim) sendMessage(a *agent, m *mesg.Msg) {
	var entry *mesg.PairwiseEntry
	for i := range a.pairwise {
		if a.pairwise[i].TheirDID == m.To {
			entry = &a.pairwise[i]
			break
		}
	}
	peer := s.byDID[m.To]
	if entry == nil || peer == nil {
		s.send(a, &mesg.Frame{Type: pltype.BasicMessageSent,
			Error: "no pairwise connection to " + m.To})
		return
	}
	s.send(peer, &mesg.Frame{Type: pltype.BasicMessageReceived,
		Class: m.Class, From: entry.MyDID,
		Message: dto.ToJSONBytes(m.Message)})
	s.send(a, &mesg.Frame{Type: pltype.BasicMessageSent})
}

func (s *AgentSim) endpointOf(a *agent) string {
	ep, err := endp.NewClientAddr(s.endpoint)
	if err != nil {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.endpoint, "/"), a.name)
	}
	return (&endp.Addr{BasePath: ep.BasePath, Service: ep.Service, Agent: a.name}).Address()
}

func newVerkey() string {
	key := make([]byte, 32)
	try.To1(rand.Read(key))
	return base58.Encode(key)
}

func newDID() string {
	id := uuid.New()
	return base58.Encode(id[:])
}
