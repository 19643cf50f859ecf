package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/baccuslab/bldsctl/internal/protocol/data"
	"github.com/baccuslab/bldsctl/internal/protocol/params"
)

func TestCommandPayloadShapes(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"create-source", CreateSource("file", "/data/rec.h5"), []byte("create-source\nfile\n/data/rec.h5")},
		{"create-source empty location", CreateSource("mcs", ""), []byte("create-source\nmcs\n")},
		{"delete-source", DeleteSource(), []byte("delete-source\n")},
		{"start-recording", StartRecording(), []byte("start-recording\n")},
		{"stop-recording", StopRecording(), []byte("stop-recording\n")},
		{"get", Get("recording-length"), []byte("get\nrecording-length\n")},
		{"get-source", GetSource("gain"), []byte("get-source\ngain\n")},
		{"get-all-data true", GetAllData(true), append([]byte("get-all-data\n"), 1)},
		{"get-all-data false", GetAllData(false), append([]byte("get-all-data\n"), 0)},
	}
	for _, tc := range cases {
		if !bytes.Equal(tc.got, tc.want) {
			t.Fatalf("%s payload got=%q want=%q", tc.name, tc.got, tc.want)
		}
	}
}

func TestGetDataPayload(t *testing.T) {
	payload := GetData(0.5, 1.5)
	want := []byte("get-data\n")
	if !bytes.HasPrefix(payload, want) {
		t.Fatalf("payload prefix got=%q", payload)
	}
	bounds := payload[len(want):]
	if len(bounds) != 8 {
		t.Fatalf("bounds length got=%d want=8", len(bounds))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(bounds[0:4])); got != 0.5 {
		t.Fatalf("start got=%g", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(bounds[4:8])); got != 1.5 {
		t.Fatalf("stop got=%g", got)
	}
}

func TestSetPayloadAppendsBinaryValueRaw(t *testing.T) {
	payload, err := Set("recording-length", params.Uint32Value(1000))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	want := append([]byte("set\nrecording-length\n"), 0xe8, 0x03, 0x00, 0x00)
	if !bytes.Equal(payload, want) {
		t.Fatalf("payload got=%q want=%q", payload, want)
	}
}

func TestSetSourcePayload(t *testing.T) {
	payload, err := SetSource("trigger", params.StringValue("photodiode"))
	if err != nil {
		t.Fatalf("set-source: %v", err)
	}
	if !bytes.Equal(payload, []byte("set-source\ntrigger\nphotodiode")) {
		t.Fatalf("payload got=%q", payload)
	}
}

func TestSetUnknownParameterFailsBeforeWire(t *testing.T) {
	_, err := Set("unknown-param", params.Uint32Value(1))
	var unknown params.UnknownParameterError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownParameterError, got %v", err)
	}
	_, err = SetSource("unknown-param", params.Uint32Value(1))
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownParameterError, got %v", err)
	}
}

func TestDecodeReplyServerErrorTag(t *testing.T) {
	_, err := DecodeReply([]byte("error\nboom"))
	var serverErr ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.Message != "boom" {
		t.Fatalf("message got=%q want=%q", serverErr.Message, "boom")
	}
}

func TestDecodeReplyFailureFlag(t *testing.T) {
	_, err := DecodeReply(append([]byte("set\n"), append([]byte{0}, "no source"...)...))
	var serverErr ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.Message != "no source" {
		t.Fatalf("message got=%q", serverErr.Message)
	}
}

func TestDecodeReplyGetBool(t *testing.T) {
	payload := append([]byte("get\n"), 1)
	payload = append(payload, "recording-exists\n"...)
	payload = append(payload, 1)
	reply, err := DecodeReply(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Type != TagGet || reply.Param != "recording-exists" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Value.Kind != params.KindBool || !reply.Value.Bool {
		t.Fatalf("value got=%+v want bool true", reply.Value)
	}
}

func TestDecodeReplyGetSourceFloat(t *testing.T) {
	payload := append([]byte("get-source\n"), 1)
	payload = append(payload, "sample-rate\n"...)
	payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(10000))
	reply, err := DecodeReply(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Param != "sample-rate" || reply.Value.Float32 != 10000 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestDecodeReplyAcknowledgementSkipsOnlySuccessByte(t *testing.T) {
	reply, err := DecodeReply(append([]byte("start-recording\n"), 1))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Type != TagStartRecording || reply.Param != "" || reply.Frame != nil {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestDecodeReplyData(t *testing.T) {
	frame, err := data.NewFrame(0, 1, 2, []int16{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	body, err := data.Encode(frame)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	reply, err := DecodeReply(append([]byte("data\n"), body...))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Frame == nil || reply.Frame.NumChannels() != 2 || reply.Frame.NumSamples() != 2 {
		t.Fatalf("unexpected frame: %+v", reply.Frame)
	}
}

func TestDecodeReplyDataShapeMismatch(t *testing.T) {
	body := make([]byte, data.HeaderSize+2)
	binary.LittleEndian.PutUint32(body[8:12], 4)
	binary.LittleEndian.PutUint32(body[12:16], 4)
	_, err := DecodeReply(append([]byte("data\n"), body...))
	if !errors.Is(err, data.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestDecodeReplyMalformed(t *testing.T) {
	if _, err := DecodeReply([]byte("no newline here")); !errors.Is(err, ErrMissingTag) {
		t.Fatalf("expected ErrMissingTag, got %v", err)
	}
	if _, err := DecodeReply([]byte("set\n")); !errors.Is(err, ErrShortReply) {
		t.Fatalf("expected ErrShortReply, got %v", err)
	}
	if _, err := DecodeReply(append([]byte("get\n"), 1)); !errors.Is(err, ErrMissingParam) {
		t.Fatalf("expected ErrMissingParam, got %v", err)
	}
}
