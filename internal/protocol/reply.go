package protocol

import (
	"bytes"

	"github.com/baccuslab/bldsctl/internal/protocol/data"
	"github.com/baccuslab/bldsctl/internal/protocol/params"
)

// Reply is one decoded server response. Exactly one of the trailing
// sections is populated: Frame for data messages, Param/Value for get and
// get-source replies, neither for plain acknowledgements.
type Reply struct {
	Type  string
	Param string
	Value params.Value
	Frame *data.Frame
}

// DecodeReply parses one framed reply body.
//
// The grammar is: tag '\n' rest. An error tag makes rest a UTF-8 message.
// A data tag makes rest a data-frame payload. Every other tag is a command
// acknowledgement whose first rest byte is the success flag; on failure the
// remainder is the server's message, on success get/get-source carry
// 'name \n value' and all other tags carry nothing further.
func DecodeReply(payload []byte) (Reply, error) {
	tag, rest, found := bytes.Cut(payload, []byte{'\n'})
	if !found {
		return Reply{}, ErrMissingTag
	}
	msgType := string(tag)

	switch msgType {
	case TagError:
		return Reply{}, ServerError{Message: string(rest)}
	case TagData:
		frame, err := data.Decode(rest)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Type: msgType, Frame: &frame}, nil
	}

	if len(rest) == 0 {
		return Reply{}, ErrShortReply
	}
	success := rest[0] != 0
	rest = rest[1:]
	if !success {
		return Reply{}, ServerError{Message: string(rest)}
	}

	switch msgType {
	case TagGet:
		return decodeGetReply(msgType, params.Server, rest)
	case TagGetSource:
		return decodeGetReply(msgType, params.Source, rest)
	default:
		// Successful acknowledgement; nothing follows the success byte.
		return Reply{Type: msgType}, nil
	}
}

func decodeGetReply(msgType string, ns params.Namespace, rest []byte) (Reply, error) {
	name, payload, found := bytes.Cut(rest, []byte{'\n'})
	if !found {
		return Reply{}, ErrMissingParam
	}
	value, err := params.Decode(ns, string(name), payload)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Type: msgType, Param: string(name), Value: value}, nil
}
