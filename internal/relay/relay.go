// Package relay implements a blocking TCP link between two nodes with
// big-endian length-prefixed frames. Payloads are opaque bytes; JSON helpers
// cover the common case of shipping chat requests and responses between peers.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	// DefaultPrefixSize is the frame length prefix width in bytes.
	DefaultPrefixSize = 4
	// DefaultMaxFrameSize caps a single frame payload.
	DefaultMaxFrameSize = 64 << 20
)

// ErrFrameTooLarge is returned when a frame exceeds the configured maximum
// or does not fit in the length prefix.
var ErrFrameTooLarge = errors.New("relay: frame too large")

type options struct {
	prefixSize   int
	maxFrameSize int
}

// Option adjusts link construction.
type Option func(*options)

// WithPrefixSize sets the length prefix width in bytes (1..8).
func WithPrefixSize(n int) Option {
	return func(o *options) { o.prefixSize = n }
}

// WithMaxFrameSize caps the payload size accepted on Recv and sent by Send.
func WithMaxFrameSize(n int) Option {
	return func(o *options) { o.maxFrameSize = n }
}

func buildOptions(opts []Option) (options, error) {
	o := options{prefixSize: DefaultPrefixSize, maxFrameSize: DefaultMaxFrameSize}
	for _, fn := range opts {
		fn(&o)
	}
	if o.prefixSize < 1 || o.prefixSize > 8 {
		return o, fmt.Errorf("relay: prefix size %d out of range [1,8]", o.prefixSize)
	}
	if o.maxFrameSize <= 0 {
		return o, fmt.Errorf("relay: max frame size must be positive")
	}
	return o, nil
}

// Conn is one end of an established link. Both ends are symmetrical and must
// agree on the prefix size.
type Conn struct {
	nc net.Conn
	o  options
}

// Send writes one frame: length prefix followed by the payload.
func (c *Conn) Send(payload []byte) error {
	if len(payload) > c.o.maxFrameSize {
		return ErrFrameTooLarge
	}
	if c.o.prefixSize < 8 && uint64(len(payload)) >= 1<<(8*c.o.prefixSize) {
		return ErrFrameTooLarge
	}
	buf := make([]byte, c.o.prefixSize+len(payload))
	putUintBE(buf[:c.o.prefixSize], uint64(len(payload)))
	copy(buf[c.o.prefixSize:], payload)
	if _, err := c.nc.Write(buf); err != nil {
		return fmt.Errorf("relay: send frame: %w", err)
	}
	return nil
}

// Recv reads one complete frame and returns its payload.
func (c *Conn) Recv() ([]byte, error) {
	prefix := make([]byte, c.o.prefixSize)
	if _, err := io.ReadFull(c.nc, prefix); err != nil {
		return nil, fmt.Errorf("relay: read frame prefix: %w", err)
	}
	size := uintBE(prefix)
	if size > uint64(c.o.maxFrameSize) {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(c.nc, payload); err != nil {
		return nil, fmt.Errorf("relay: read frame payload: %w", err)
	}
	return payload, nil
}

// SendJSON marshals v and sends it as one frame.
func (c *Conn) SendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("relay: marshal payload: %w", err)
	}
	return c.Send(b)
}

// RecvJSON receives one frame and unmarshals it into v.
func (c *Conn) RecvJSON(v any) error {
	b, err := c.Recv()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("relay: unmarshal payload: %w", err)
	}
	return nil
}

// SetDeadline bounds both pending and future Send/Recv calls.
func (c *Conn) SetDeadline(t time.Time) error { return c.nc.SetDeadline(t) }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

// Server accepts link connections on a TCP address.
type Server struct {
	ln net.Listener
	o  options
}

// Listen binds addr (e.g. ":50007") and returns a server ready to accept.
func Listen(addr string, opts ...Option) (*Server, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("relay: listen %s: %w", addr, err)
	}
	return &Server{ln: ln, o: o}, nil
}

// Accept blocks until a peer connects.
func (s *Server) Accept() (*Conn, error) {
	nc, err := s.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("relay: accept: %w", err)
	}
	return &Conn{nc: nc, o: s.o}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close stops the listener. Established conns stay open.
func (s *Server) Close() error { return s.ln.Close() }

// Dial connects to a listening peer. ctx bounds the connection attempt only.
func Dial(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("relay: dial %s: %w", addr, err)
	}
	return &Conn{nc: nc, o: o}, nil
}

func putUintBE(b []byte, v uint64) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func uintBE(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
