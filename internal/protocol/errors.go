package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTag   = errors.New("protocol: reply carries no message tag")
	ErrShortReply   = errors.New("protocol: reply truncated before success byte")
	ErrMissingParam = errors.New("protocol: get reply carries no parameter name")
)

// ServerError carries the server's own UTF-8 failure message, reported
// either as an error reply or as success=false on a command reply.
type ServerError struct {
	Message string
}

func (e ServerError) Error() string {
	return fmt.Sprintf("protocol: server error: %s", e.Message)
}
