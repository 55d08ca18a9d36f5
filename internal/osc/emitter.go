// Package osc sends avatar parameters as single-float OSC messages over UDP.
package osc

import (
	"net"
	"strconv"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
	goosc "github.com/hypebeast/go-osc/osc"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 9000
)

// Target is the OSC receiver.
type Target struct {
	Host string
	Port int
}

func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Sender emits one parameter value. Failures are not reported.
type Sender interface {
	Emit(path string, value float32)
}

// Emitter owns a single UDP socket used for every message.
type Emitter struct {
	conn   *net.UDPConn
	target Target
	addr   *net.UDPAddr
	logger logger.Logger
}

// New binds an ephemeral local UDP port and points it at target.
func New(target Target, log logger.Logger) (*Emitter, error) {
	errFactory := errors.New()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, errFactory.Wrap(ErrSocket, err)
	}

	e := &Emitter{conn: conn, logger: log}
	if err := e.SetTarget(target); err != nil {
		conn.Close()
		return nil, err
	}

	return e, nil
}

// SetTarget resolves and switches to a new receiver. On error the
// previous receiver is kept.
func (e *Emitter) SetTarget(target Target) error {
	errFactory := errors.New()

	if target.Port <= 0 || target.Port > 65535 {
		return errFactory.WithData(ErrInvalidTarget, target.String())
	}

	addr, err := net.ResolveUDPAddr("udp", target.String())
	if err != nil {
		return errFactory.Wrap(ErrInvalidTarget, err)
	}

	e.target = target
	e.addr = addr

	return nil
}

// Target returns the current receiver.
func (e *Emitter) Target() Target {
	return e.target
}

// Emit encodes value under path and sends it. Errors are dropped.
func (e *Emitter) Emit(path string, value float32) {
	buf, err := Encode(path, value)
	if err != nil {
		e.logger.Debug().Err(err).Str("path", path).Msg("Failed to encode OSC message")
		return
	}

	if _, err := e.conn.WriteToUDP(buf, e.addr); err != nil {
		e.logger.Debug().Err(err).Str("path", path).Str("target", e.target.String()).Msg("Failed to send OSC message")
	}
}

// Close releases the socket.
func (e *Emitter) Close() error {
	if err := e.conn.Close(); err != nil {
		return errors.New().Wrap(ErrSocket, err)
	}
	return nil
}

// Encode builds the wire form of a message with one float32 argument.
func Encode(path string, value float32) ([]byte, error) {
	buf, err := goosc.NewMessage(path, value).MarshalBinary()
	if err != nil {
		return nil, errors.New().Wrap(ErrEncode, err)
	}
	return buf, nil
}
