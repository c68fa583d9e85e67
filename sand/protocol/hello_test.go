package protocol

import (
	"errors"
	"testing"
)

func TestHelloRoundTrip(t *testing.T) {
	caps := map[string]string{"compression": "lz4"}
	hello := NewHello([]byte("0123456789abcdef0123456789abcdef"), "Segment_A", caps)
	caps["compression"] = "mutated"

	encoded, err := EncodeHello(hello)
	if err != nil {
		t.Fatalf("EncodeHello: %v", err)
	}
	decoded, err := DecodeHello(encoded)
	if err != nil {
		t.Fatalf("DecodeHello: %v", err)
	}
	if string(decoded.KeyMaterial) != string(hello.KeyMaterial) {
		t.Fatalf("key material mismatch")
	}
	if decoded.Segment != "Segment_A" {
		t.Fatalf("segment mismatch")
	}
	if decoded.Capabilities["compression"] != "lz4" {
		t.Fatalf("capabilities mismatch")
	}
}

func TestDecodeHelloFailures(t *testing.T) {
	if _, err := DecodeHello([]byte(`{"version":"sand/0","key_material":"AQ=="}`)); !errors.Is(err, ErrHelloVersionMismatch) {
		t.Fatalf("expected ErrHelloVersionMismatch, got %v", err)
	}
	if _, err := DecodeHello([]byte(`{"version":"sand/1"}`)); err != ErrHelloMissingKey {
		t.Fatalf("expected ErrHelloMissingKey, got %v", err)
	}
	if _, err := DecodeHello([]byte(`not json`)); err == nil {
		t.Fatalf("expected json error")
	}
}

func TestErrorPayloadRoundTrip(t *testing.T) {
	p, err := DecodeError(EncodeError(ErrorPayload{Code: CodeAuthenticationFailed, Message: "nope"}))
	if err != nil {
		t.Fatalf("DecodeError: %v", err)
	}
	if p.Code != CodeAuthenticationFailed || p.Message != "nope" {
		t.Fatalf("unexpected payload %+v", p)
	}
}
