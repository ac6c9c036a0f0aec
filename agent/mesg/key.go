package mesg

import (
	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/core"
)

// Key builds the correlation key of the type t qualified with part. The same
// function is used on both sides: when a frame arrives and when a waiter
// subscribes.
func Key(t, part string) string {
	return t + "." + part
}

// PayloadKey is the correlation key of a generic payload of class sent by
// the DID from.
func PayloadKey(class, from string) string {
	return class + "." + from
}

// Classify returns the correlation key of the frame. Unknown types and frames
// missing the fields their key needs are ClassificationErrors: there is no
// fallback key, because a wrong key would desynchronize an unrelated
// exchange.
func Classify(f *Frame) (key string, err error) {
	switch f.Category {
	case pltype.Simple:
		return f.Type, nil
	case pltype.ByConnectionKey:
		if f.ConnectionKey == "" {
			return "", &core.ClassificationError{Type: f.Type,
				Reason: "connection_key missing"}
		}
		return Key(f.Type, f.ConnectionKey), nil
	case pltype.ByDID:
		if f.DID == "" {
			return "", &core.ClassificationError{Type: f.Type,
				Reason: "did missing"}
		}
		return Key(f.Type, f.DID), nil
	case pltype.Payload:
		if f.Class == "" || f.From == "" {
			return "", &core.ClassificationError{Type: f.Type,
				Reason: "@class or from missing"}
		}
		return PayloadKey(f.Class, f.From), nil
	case pltype.Unknown:
		return "", &core.ClassificationError{Type: f.Type}
	}
	return "", &core.ClassificationError{Type: f.Type}
}

// DecodeAndClassify is the boundary function of the inbound stream. When
// only the classification fails the decoded frame is returned with the
// error.
func DecodeAndClassify(data []byte) (f *Frame, key string, err error) {
	f, err = Decode(data)
	if err != nil {
		return nil, "", err
	}
	key, err = Classify(f)
	if err != nil {
		return f, "", err
	}
	return f, key, nil
}
