// Package client implements a synchronous client of the Baccus Lab Data
// Server. One connection carries one outstanding request at a time: the
// protocol has no request identifiers, so the next inbound frame always
// belongs to whichever call is waiting. The client serializes calls with a
// mutex; correlation across multiple logical callers is the application's
// problem.
package client

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/baccuslab/bldsctl/internal/observability"
	"github.com/baccuslab/bldsctl/internal/protocol"
	"github.com/baccuslab/bldsctl/internal/protocol/data"
	"github.com/baccuslab/bldsctl/internal/protocol/frame"
	"github.com/baccuslab/bldsctl/internal/protocol/params"
)

// DefaultPort is the port the BLDS listens on.
const DefaultPort = 12345

// Source types the BLDS can manage.
const (
	SourceMCS    = "mcs"
	SourceHidens = "hidens"
	SourceFile   = "file"
)

var (
	ErrNotConnected     = errors.New("client: not connected to the BLDS")
	ErrLocationRequired = errors.New("client: file sources require a location")
	ErrUnexpectedReply  = errors.New("client: unexpected reply type")
)

// Config defines connection parameters for one BLDS.
type Config struct {
	Host           string
	Port           int
	ConnectTimeout time.Duration
	Limits         frame.Limits
}

func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           DefaultPort,
		ConnectTimeout: 5 * time.Second,
		Limits:         frame.DefaultLimits(),
	}
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Host) == "" {
		c.Host = "localhost"
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	return c
}

// Addr returns the host:port dial target.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client is a BLDS connection handle. State is
// {disconnected, connected} x {not-streaming, streaming}; the streaming
// axis survives a disconnect since it mirrors what the client last asked
// the server for, not the socket.
//
// reqMu serializes whole request/response exchanges. stateMu guards the
// connection handle and streaming flag and is never held across I/O, so
// Disconnect can always close the socket out from under a blocked
// receive. That close is the one cancellation primitive the protocol has.
type Client struct {
	cfg Config
	log zerolog.Logger

	reqMu sync.Mutex

	stateMu   sync.Mutex
	conn      net.Conn
	streaming bool
}

func New(cfg Config, log zerolog.Logger) *Client {
	return &Client{cfg: cfg.withDefaults(), log: log}
}

// Connect dials the BLDS. Connecting while connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.conn != nil {
		return nil
	}
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr())
	if err != nil {
		return err
	}
	c.conn = conn
	c.log.Info().Str("addr", c.cfg.Addr()).Msg("connected to BLDS")
	return nil
}

// Disconnect closes the connection, unblocking any in-flight receive with
// ErrConnectionClosed. Disconnecting while disconnected is a no-op.
func (c *Client) Disconnect() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.log.Info().Str("addr", c.cfg.Addr()).Msg("disconnected from BLDS")
	return err
}

func (c *Client) Connected() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.conn != nil
}

// Streaming reports whether the client has asked the server to push all
// data.
func (c *Client) Streaming() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.streaming
}

func (c *Client) current() (net.Conn, bool, error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.conn == nil {
		return nil, false, ErrNotConnected
	}
	return c.conn, c.streaming, nil
}

// CreateSource asks the BLDS to create a data source. File sources require
// a location; hidens sources default to localhost; mcs sources carry the
// location through untouched (the server ignores it).
func (c *Client) CreateSource(sourceType, location string) error {
	switch sourceType {
	case SourceFile:
		if location == "" {
			return ErrLocationRequired
		}
	case SourceHidens:
		if location == "" {
			location = "localhost"
		}
	}
	return c.ack(protocol.TagCreateSource, protocol.CreateSource(sourceType, location))
}

// DeleteSource asks the BLDS to delete the managed data source.
func (c *Client) DeleteSource() error {
	return c.ack(protocol.TagDeleteSource, protocol.DeleteSource())
}

// StartRecording starts a recording at the current save location for the
// current recording length.
func (c *Client) StartRecording() error {
	return c.ack(protocol.TagStartRecording, protocol.StartRecording())
}

// StopRecording stops a running recording.
func (c *Client) StopRecording() error {
	return c.ack(protocol.TagStopRecording, protocol.StopRecording())
}

// Get reads a named parameter of the BLDS or its recording.
func (c *Client) Get(param string) (params.Value, error) {
	if _, err := params.KindOf(params.Server, param); err != nil {
		return params.Value{}, err
	}
	return c.get(protocol.TagGet, protocol.Get(param))
}

// GetSource reads a named parameter of the managed data source.
func (c *Client) GetSource(param string) (params.Value, error) {
	if _, err := params.KindOf(params.Source, param); err != nil {
		return params.Value{}, err
	}
	return c.get(protocol.TagGetSource, protocol.GetSource(param))
}

// Set writes a named parameter of the BLDS or its recording. Unknown or
// read-only names fail before any I/O.
func (c *Client) Set(param string, value params.Value) error {
	payload, err := protocol.Set(param, value)
	if err != nil {
		return err
	}
	return c.ack(protocol.TagSet, payload)
}

// SetSource writes a named parameter of the managed data source.
func (c *Client) SetSource(param string, value params.Value) error {
	payload, err := protocol.SetSource(param, value)
	if err != nil {
		return err
	}
	return c.ack(protocol.TagSetSource, payload)
}

// RequestAllData toggles server-push streaming. Must be called before a
// recording starts; the server will not retrofit streaming onto a running
// recording.
func (c *Client) RequestAllData(request bool) error {
	if err := c.ack(protocol.TagGetAllData, protocol.GetAllData(request)); err != nil {
		return err
	}
	c.stateMu.Lock()
	c.streaming = request
	c.stateMu.Unlock()
	return nil
}

// GetData returns the next chunk of data. In streaming mode the bounds are
// ignored and no request is sent; the call blocks for the next pushed
// frame. Otherwise it requests exactly [start, stop) and blocks until the
// server has produced that interval, which may be well after stop has
// passed in server time.
func (c *Client) GetData(start, stop float32) (data.Frame, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	conn, streaming, err := c.current()
	if err != nil {
		return data.Frame{}, err
	}

	began := time.Now()
	if !streaming {
		if err := frame.Send(conn, protocol.GetData(start, stop), c.cfg.Limits); err != nil {
			observability.RecordCommand(protocol.TagGetData, err, time.Since(began))
			return data.Frame{}, err
		}
	}

	reply, err := c.receive(conn)
	observability.RecordCommand(protocol.TagGetData, err, time.Since(began))
	if err != nil {
		return data.Frame{}, err
	}
	if reply.Frame == nil {
		return data.Frame{}, ErrUnexpectedReply
	}
	observability.RecordDataFrame(2 * len(reply.Frame.Samples))
	c.log.Debug().
		Float32("start", reply.Frame.Start).
		Float32("stop", reply.Frame.Stop).
		Int("channels", reply.Frame.NumChannels()).
		Int("samples", reply.Frame.NumSamples()).
		Msg("data frame received")
	return *reply.Frame, nil
}

// ack sends a command whose successful reply carries nothing beyond the
// success byte.
func (c *Client) ack(tag string, payload []byte) error {
	reply, err := c.roundTrip(tag, payload)
	if err != nil {
		return err
	}
	if reply.Type != tag {
		return ErrUnexpectedReply
	}
	return nil
}

func (c *Client) get(tag string, payload []byte) (params.Value, error) {
	reply, err := c.roundTrip(tag, payload)
	if err != nil {
		return params.Value{}, err
	}
	if reply.Type != tag {
		return params.Value{}, ErrUnexpectedReply
	}
	return reply.Value, nil
}

func (c *Client) roundTrip(tag string, payload []byte) (protocol.Reply, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	conn, _, err := c.current()
	if err != nil {
		return protocol.Reply{}, err
	}

	began := time.Now()
	reply, err := c.exchange(conn, payload)
	observability.RecordCommand(tag, err, time.Since(began))
	if err != nil {
		c.log.Debug().Err(err).Str("command", tag).Msg("command failed")
		return protocol.Reply{}, err
	}
	c.log.Debug().
		Str("command", tag).
		Dur("elapsed", time.Since(began)).
		Msg("command acknowledged")
	return reply, nil
}

func (c *Client) exchange(conn net.Conn, payload []byte) (protocol.Reply, error) {
	if err := frame.Send(conn, payload, c.cfg.Limits); err != nil {
		return protocol.Reply{}, err
	}
	return c.receive(conn)
}

func (c *Client) receive(conn net.Conn) (protocol.Reply, error) {
	body, err := frame.Receive(conn, c.cfg.Limits)
	if err != nil {
		return protocol.Reply{}, err
	}
	return protocol.DecodeReply(body)
}
