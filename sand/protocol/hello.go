package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the protocol version carried in every HELLO.
const Version = "sand/1"

var (
	ErrHelloMissingKey      = errors.New("protocol: hello missing key material")
	ErrHelloVersionMismatch = errors.New("protocol: hello version mismatch")
)

// Hello carries the key material a peer must hand to its handshake.
// It is sent in the clear; the material is public (X25519) or, in local
// keying mode, deliberately exposed.
type Hello struct {
	Version      string            `json:"version"`
	KeyMaterial  []byte            `json:"key_material"`
	Segment      string            `json:"segment,omitempty"`
	Capabilities map[string]string `json:"capabilities,omitempty"`
}

func NewHello(material []byte, segment string, capabilities map[string]string) Hello {
	// Copy caps to avoid external mutation.
	capsCopy := map[string]string{}
	for k, v := range capabilities {
		capsCopy[k] = v
	}
	return Hello{
		Version:      Version,
		KeyMaterial:  append([]byte(nil), material...),
		Segment:      segment,
		Capabilities: capsCopy,
	}
}

func EncodeHello(h Hello) ([]byte, error) {
	return json.Marshal(h)
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	if err := json.Unmarshal(b, &h); err != nil {
		return Hello{}, err
	}
	if h.Version != Version {
		return Hello{}, fmt.Errorf("%w: %q", ErrHelloVersionMismatch, h.Version)
	}
	if len(h.KeyMaterial) == 0 {
		return Hello{}, ErrHelloMissingKey
	}
	return h, nil
}
