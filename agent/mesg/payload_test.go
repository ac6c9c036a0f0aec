package mesg

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/core"
	"github.com/lainio/err2/assert"
)

func TestDecodeAndClassify(t *testing.T) {
	tests := []struct {
		name string
		data string
		key  string
	}{
		{"state", `{"@type":"` + pltype.AdminState + `","content":{"initialized":true}}`,
			pltype.AdminState},
		{"invite generated", `{"@type":"` + pltype.ConnectionsInviteGenerated + `","invite":"x"}`,
			pltype.ConnectionsInviteGenerated},
		{"request received", `{"@type":"` + pltype.ConnectionsRequestReceived + `","did":"D2"}`,
			pltype.ConnectionsRequestReceived},
		{"request sent", `{"@type":"` + pltype.ConnectionsRequestSent + `"}`,
			pltype.ConnectionsRequestSent},
		{"message sent", `{"@type":"` + pltype.BasicMessageSent + `"}`,
			pltype.BasicMessageSent},
		{"invite received", `{"@type":"` + pltype.ConnectionsInviteReceived + `","connection_key":"PK"}`,
			pltype.ConnectionsInviteReceived + ".PK"},
		{"response received", `{"@type":"` + pltype.ConnectionsResponseReceived + `","connection_key":"PK","their_did":"D2"}`,
			pltype.ConnectionsResponseReceived + ".PK"},
		{"response sent", `{"@type":"` + pltype.ConnectionsResponseSent + `","did":"D1"}`,
			pltype.ConnectionsResponseSent + ".D1"},
		{"payload", `{"@type":"` + pltype.BasicMessageReceived + `","@class":"` +
			pltype.ClassProof + `","from":"D1","message":"{\"a\":1}"}`,
			pltype.ClassProof + ".D1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			f, key, err := DecodeAndClassify([]byte(tt.data))
			assert.NoError(err)
			assert.Equal(key, tt.key)
			assert.That(f.Category != pltype.Unknown)
		})
	}
}

func TestClassify_EveryKnownType(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	for _, typ := range pltype.InboundTypes() {
		f := &Frame{Type: typ, Category: pltype.CategoryOf(typ),
			ConnectionKey: "PK", DID: "D", Class: "C", From: "F"}
		key, err := Classify(f)
		assert.NoError(err)
		assert.That(key != "", "type: %s", typ)
	}
}

func TestDecodeAndClassify_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{@type`},
		{"no type", `{"did":"D1"}`},
		{"unknown type", `{"@type":"did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/x/1.0/y"}`},
		{"outbound type", `{"@type":"` + pltype.ConnectionsSendRequest + `"}`},
		{"no connection key", `{"@type":"` + pltype.ConnectionsInviteReceived + `"}`},
		{"no did", `{"@type":"` + pltype.ConnectionsResponseSent + `"}`},
		{"no class", `{"@type":"` + pltype.BasicMessageReceived + `","from":"D"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			_, _, err := DecodeAndClassify([]byte(tt.data))
			var ce *core.ClassificationError
			assert.That(errors.As(err, &ce))
		})
	}
}

func TestDecodeAndClassify_ErrorFrameWithoutKey(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	data := `{"@type":"` + pltype.ConnectionsInviteReceived + `","error":"bad invitation"}`
	f, key, err := DecodeAndClassify([]byte(data))
	var ce *core.ClassificationError
	assert.That(errors.As(err, &ce))
	assert.Equal(key, "")
	assert.NotNil(f)
	assert.Error(f.Err())
	assert.That(strings.Contains(f.Err().Error(), "bad invitation"))
}

func TestFrame_Payload(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		want    string
		wantErr bool
	}{
		{"string encoded", `"{\"a\":1}"`, `{"a":1}`, false},
		{"object", `{"a":1}`, `{"a":1}`, false},
		{"empty", ``, ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			f := &Frame{Message: json.RawMessage(tt.msg)}
			got, err := f.Payload()
			if tt.wantErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(string(got), tt.want)
		})
	}
}

func TestFrame_ErrAndState(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	f, err := Decode([]byte(`{"@type":"` + pltype.AdminState +
		`","error":"wallet not found"}`))
	assert.NoError(err)
	assert.Error(f.Err())
	assert.Equal(f.Err().Error(), "wallet not found")

	s, err := f.State()
	assert.NoError(err)
	assert.That(!s.IsReadyFor(""))

	_, err = (&Frame{Type: pltype.BasicMessageSent}).State()
	assert.Error(err)
}

func TestState_Find(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	data := `{"@type":"` + pltype.AdminState + `","content":{
		"initialized":true, "agent_name":"alice",
		"pairwise_connections":[
			{"my_did":"D1","their_did":"D2","metadata":{"their_vk":"VK2","connection_key":"CK1"}},
			{"my_did":"D3","their_did":"D4","metadata":{"their_vk":"VK4","their_endpoint":"http://x"}}
		]}}`
	f, err := Decode([]byte(data))
	assert.NoError(err)
	s, err := f.State()
	assert.NoError(err)
	assert.That(s.IsReadyFor("alice"))
	assert.That(!s.IsReadyFor("bob"))

	e, ok := s.FindByTheirVerkey("VK4")
	assert.That(ok)
	assert.Equal(e.MyDID, "D3")
	assert.Equal(e.Metadata.TheirEndpoint, "http://x")

	e, ok = s.FindByConnectionKey("CK1")
	assert.That(ok)
	assert.Equal(e.TheirDID, "D2")

	e, ok = s.FindByTheirDID("D4")
	assert.That(ok)
	assert.Equal(e.MyDID, "D3")

	_, ok = s.FindByTheirVerkey("")
	assert.That(!ok)
	_, ok = s.FindByConnectionKey("nope")
	assert.That(!ok)
}

func TestNewSendMessage(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	m := NewSendMessage("D2", pltype.ClassCredentialOffer, []byte(`{"nonce":"1"}`))
	var out map[string]any
	assert.NoError(json.Unmarshal(m.JSON(), &out))
	assert.Equal(out["@type"].(string), pltype.BasicMessageSend)
	assert.Equal(out["to"].(string), "D2")
	assert.Equal(out["@class"].(string), pltype.ClassCredentialOffer)
	assert.Equal(out["message"].(string), `{"nonce":"1"}`)
	assert.That(out["@id"].(string) != "")

	// the agent relays it back wrapped to message_received
	relay := Frame{Type: pltype.BasicMessageReceived, Class: m.Class, From: "D1",
		Message: json.RawMessage(`"` + `{\"nonce\":\"1\"}` + `"`)}
	p, err := relay.Payload()
	assert.NoError(err)
	assert.Equal(string(p), `{"nonce":"1"}`)
}
