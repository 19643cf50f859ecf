package client

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/baccuslab/bldsctl/internal/protocol"
	"github.com/baccuslab/bldsctl/internal/protocol/data"
	"github.com/baccuslab/bldsctl/internal/protocol/frame"
	"github.com/baccuslab/bldsctl/internal/protocol/params"
	"github.com/baccuslab/bldsctl/internal/testutil/testlog"
)

// step is one scripted exchange: the exact command payload the fake server
// expects, and the reply bodies it sends back. A step with no want just
// pushes its replies unsolicited.
type step struct {
	want    []byte
	replies [][]byte
}

func startServer(t *testing.T, steps []step) *Client {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		for _, s := range steps {
			if s.want != nil {
				got, err := frame.Receive(conn, frame.DefaultLimits())
				if err != nil {
					done <- err
					return
				}
				if !bytes.Equal(got, s.want) {
					t.Errorf("server got payload %q want %q", got, s.want)
				}
			}
			for _, reply := range s.replies {
				if err := frame.Send(conn, reply, frame.DefaultLimits()); err != nil {
					done <- err
					return
				}
			}
		}
		done <- nil
	}()
	t.Cleanup(func() {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Errorf("server script did not finish")
		}
	})

	addr := ln.Addr().(*net.TCPAddr)
	c := New(Config{Host: "127.0.0.1", Port: addr.Port}, testlog.Start(t))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func ackReply(tag string) []byte {
	return append([]byte(tag+"\n"), 1)
}

func TestGetServerParameter(t *testing.T) {
	reply := append([]byte("get\n"), 1)
	reply = append(reply, "recording-exists\n"...)
	reply = append(reply, 1)
	c := startServer(t, []step{
		{want: []byte("get\nrecording-exists\n"), replies: [][]byte{reply}},
	})

	value, err := c.Get("recording-exists")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value.Kind != params.KindBool || !value.Bool {
		t.Fatalf("value got=%+v want bool true", value)
	}
}

func TestSetUnknownParameterWritesNothing(t *testing.T) {
	// The script expects the get as the server's very first read, so any
	// bytes leaked by the failed set would break the exchange.
	reply := append([]byte("get\n"), 1)
	reply = append(reply, "source-exists\n"...)
	reply = append(reply, 0)
	c := startServer(t, []step{
		{want: []byte("get\nsource-exists\n"), replies: [][]byte{reply}},
	})

	var unknown params.UnknownParameterError
	if err := c.Set("unknown-param", params.Uint32Value(1)); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownParameterError, got %v", err)
	}
	if err := c.SetSource("unknown-param", params.Uint32Value(1)); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownParameterError, got %v", err)
	}

	value, err := c.Get("source-exists")
	if err != nil {
		t.Fatalf("get after failed set: %v", err)
	}
	if value.Bool {
		t.Fatalf("value got=%+v want bool false", value)
	}
}

func TestStreamingGetDataSendsNoRequest(t *testing.T) {
	pushed, err := data.NewFrame(0, 1, 2, []int16{1, -1, 2, -2})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	body, err := data.Encode(pushed)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	c := startServer(t, []step{
		{want: append([]byte("get-all-data\n"), 1), replies: [][]byte{ackReply("get-all-data")}},
		// Server pushes the next frame without any request on the wire.
		{replies: [][]byte{append([]byte("data\n"), body...)}},
	})

	if err := c.RequestAllData(true); err != nil {
		t.Fatalf("request all data: %v", err)
	}
	if !c.Streaming() {
		t.Fatalf("client should be streaming")
	}

	// Bounds must be ignored in streaming mode.
	got, err := c.GetData(123.0, 456.0)
	if err != nil {
		t.Fatalf("get data: %v", err)
	}
	if got.NumChannels() != 2 || got.NumSamples() != 2 || got.At(1, 0) != 2 {
		t.Fatalf("unexpected frame: %+v", got)
	}
}

func TestGetDataPullMode(t *testing.T) {
	pulled, err := data.NewFrame(0.5, 1.0, 1, []int16{7, 8, 9})
	if err != nil {
		t.Fatalf("new frame: %v", err)
	}
	body, err := data.Encode(pulled)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	c := startServer(t, []step{
		{want: protocol.GetData(0.5, 1.0), replies: [][]byte{append([]byte("data\n"), body...)}},
	})

	got, err := c.GetData(0.5, 1.0)
	if err != nil {
		t.Fatalf("get data: %v", err)
	}
	if got.Start != 0.5 || got.Stop != 1.0 || got.NumSamples() != 3 {
		t.Fatalf("unexpected frame: %+v", got)
	}
}

func TestCreateSourceLocationRules(t *testing.T) {
	c := startServer(t, []step{
		{want: []byte("create-source\nhidens\nlocalhost"), replies: [][]byte{ackReply("create-source")}},
	})

	if err := c.CreateSource(SourceFile, ""); !errors.Is(err, ErrLocationRequired) {
		t.Fatalf("expected ErrLocationRequired, got %v", err)
	}
	if err := c.CreateSource(SourceHidens, ""); err != nil {
		t.Fatalf("create hidens source: %v", err)
	}
}

func TestServerErrorSurfacesVerbatim(t *testing.T) {
	c := startServer(t, []step{
		{want: []byte("start-recording\n"), replies: [][]byte{[]byte("error\nboom")}},
	})

	err := c.StartRecording()
	var serverErr protocol.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.Message != "boom" {
		t.Fatalf("message got=%q want=%q", serverErr.Message, "boom")
	}
}

func TestPeerCloseSurfacesConnectionClosed(t *testing.T) {
	c := startServer(t, []step{
		{want: []byte("stop-recording\n")},
		// Script ends; the deferred close drops the connection with no reply.
	})

	if err := c.StopRecording(); !errors.Is(err, frame.ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestOperationsRequireConnection(t *testing.T) {
	c := New(DefaultConfig(), testlog.Start(t))
	if _, err := c.Get("source-exists"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if _, err := c.GetData(0, 1); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("disconnect while disconnected: %v", err)
	}
}
