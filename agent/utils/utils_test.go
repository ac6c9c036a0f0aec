package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/lainio/err2/assert"
)

func TestDecodeB64(t *testing.T) {
	data := []byte(`{"recipientKeys":["key"]}>?`)
	tests := []struct {
		name string
		str  string
	}{
		{"url", base64.URLEncoding.EncodeToString(data)},
		{"raw url", base64.RawURLEncoding.EncodeToString(data)},
		{"std", base64.StdEncoding.EncodeToString(data)},
		{"own", EncodeB64(data)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			got, err := DecodeB64(tt.str)
			assert.NoError(err)
			assert.DeepEqual(got, data)
		})
	}
}

func TestHub_Defaults(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	h := &Hub{}
	assert.Equal(h.Timeout(), DefaultTimeout)
	assert.Equal(h.ReconnectInterval(), DefaultReconnectInterval)
	assert.Equal(h.Origin(), DefaultOrigin)
	assert.That(!h.DropBuffered())

	h.SetTimeout(time.Second)
	h.SetReconnectInterval(time.Millisecond)
	h.SetOrigin("http://example.com/")
	h.SetDropBuffered(true)
	assert.Equal(h.Timeout(), time.Second)
	assert.Equal(h.ReconnectInterval(), time.Millisecond)
	assert.Equal(h.Origin(), "http://example.com/")
	assert.That(h.DropBuffered())
}

func TestUUID(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.NotEqual(UUID(), UUID())
}
