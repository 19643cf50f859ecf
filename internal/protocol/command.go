package protocol

import (
	"encoding/binary"
	"math"

	"github.com/baccuslab/bldsctl/internal/protocol/params"
)

// Message tags. Commands are client->server; Data and Error only arrive
// server->client.
const (
	TagCreateSource   = "create-source"
	TagDeleteSource   = "delete-source"
	TagStartRecording = "start-recording"
	TagStopRecording  = "stop-recording"
	TagGet            = "get"
	TagGetSource      = "get-source"
	TagSet            = "set"
	TagSetSource      = "set-source"
	TagGetData        = "get-data"
	TagGetAllData     = "get-all-data"
	TagData           = "data"
	TagError          = "error"
)

// Command payloads join the tag and any textual arguments with single
// newline bytes. Binary trailing values are appended raw after their
// separating newline; they are never newline-escaped. The exact shapes
// below are what the server parses, trailing newlines included.

// CreateSource builds a create-source payload. The location slot is always
// present, as an empty string when there is none.
func CreateSource(sourceType, location string) []byte {
	return []byte(TagCreateSource + "\n" + sourceType + "\n" + location)
}

// DeleteSource builds a delete-source payload.
func DeleteSource() []byte {
	return []byte(TagDeleteSource + "\n")
}

// StartRecording builds a start-recording payload.
func StartRecording() []byte {
	return []byte(TagStartRecording + "\n")
}

// StopRecording builds a stop-recording payload.
func StopRecording() []byte {
	return []byte(TagStopRecording + "\n")
}

// Get builds a get payload for a server parameter.
func Get(param string) []byte {
	return []byte(TagGet + "\n" + param + "\n")
}

// GetSource builds a get-source payload for a source parameter.
func GetSource(param string) []byte {
	return []byte(TagGetSource + "\n" + param + "\n")
}

// GetData builds a get-data payload: two raw little-endian float32 bounds,
// no separators between them.
func GetData(start, stop float32) []byte {
	buf := make([]byte, 0, len(TagGetData)+1+8)
	buf = append(buf, TagGetData...)
	buf = append(buf, '\n')
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(start))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(stop))
	return buf
}

// GetAllData builds a get-all-data payload with a single boolean byte.
func GetAllData(flag bool) []byte {
	b := byte(0)
	if flag {
		b = 1
	}
	return append([]byte(TagGetAllData+"\n"), b)
}

// Set builds a set payload for a writable server parameter. Unknown or
// read-only names fail here, before anything reaches the wire.
func Set(param string, value params.Value) ([]byte, error) {
	return setPayload(TagSet, params.Server, param, value)
}

// SetSource builds a set-source payload for a writable source parameter.
func SetSource(param string, value params.Value) ([]byte, error) {
	return setPayload(TagSetSource, params.Source, param, value)
}

func setPayload(tag string, ns params.Namespace, param string, value params.Value) ([]byte, error) {
	encoded, err := params.Encode(ns, param, value)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(tag)+1+len(param)+1+len(encoded))
	buf = append(buf, tag...)
	buf = append(buf, '\n')
	buf = append(buf, param...)
	buf = append(buf, '\n')
	buf = append(buf, encoded...)
	return buf, nil
}
