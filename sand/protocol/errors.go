package protocol

import "encoding/json"

// ErrorCode classifies a failure reported in an ERROR frame so the
// receiving side can restore the matching sentinel error.
type ErrorCode uint8

const (
	CodeInternal ErrorCode = iota
	CodeNotAuthenticated
	CodeAuthenticationFailed
	CodeEmptyInput
	CodeSegmentationRequired
	CodeClosed
	CodeHandshakeRejected
	CodeMalformed
	CodeMessageTooLarge
	CodeFrameTooLarge
)

// ErrorPayload is the JSON body of an ERROR frame.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func EncodeError(p ErrorPayload) []byte {
	// Marshal of this struct cannot fail.
	b, _ := json.Marshal(p)
	return b
}

func DecodeError(b []byte) (ErrorPayload, error) {
	var p ErrorPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return ErrorPayload{}, err
	}
	return p, nil
}
