package osc_test

import (
	"net"
	"testing"
	"time"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
	"codeberg.org/mutker/lhmosc/internal/osc"
	goosc "github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (*net.UDPConn, osc.Target) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, osc.Target{Host: "127.0.0.1", Port: conn.LocalAddr().(*net.UDPAddr).Port}
}

func receive(t *testing.T, conn *net.UDPConn) *goosc.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	buf := make([]byte, 1024)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)

	packet, err := goosc.ParsePacket(string(buf[:n]))
	require.NoError(t, err)

	msg, ok := packet.(*goosc.Message)
	require.True(t, ok, "expected a single message, not a bundle")
	return msg
}

func TestEmit(t *testing.T) {
	conn, target := listen(t)

	e, err := osc.New(target, logger.Default())
	require.NoError(t, err)
	defer e.Close()

	e.Emit(osc.PathCPUUsage, 23.5)
	e.Emit(osc.PathWeekday, 6)

	msg := receive(t, conn)
	assert.Equal(t, osc.PathCPUUsage, msg.Address)
	require.Len(t, msg.Arguments, 1)
	assert.Equal(t, float32(23.5), msg.Arguments[0])

	msg = receive(t, conn)
	assert.Equal(t, osc.PathWeekday, msg.Address)
	assert.Equal(t, float32(6), msg.Arguments[0])
}

func TestSetTarget(t *testing.T) {
	_, first := listen(t)
	conn, second := listen(t)

	e, err := osc.New(first, logger.Default())
	require.NoError(t, err)
	defer e.Close()

	err = e.SetTarget(osc.Target{Host: "127.0.0.1", Port: 70000})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, osc.ErrInvalidTarget))
	assert.Equal(t, first, e.Target(), "rejected target must not replace the current one")

	require.NoError(t, e.SetTarget(second))
	e.Emit(osc.PathGPUTemp, 61)

	msg := receive(t, conn)
	assert.Equal(t, osc.PathGPUTemp, msg.Address)
	assert.Equal(t, float32(61), msg.Arguments[0])
}

func TestEmitIgnoresSendFailure(t *testing.T) {
	_, target := listen(t)

	e, err := osc.New(target, logger.Default())
	require.NoError(t, err)
	require.NoError(t, e.Close())

	assert.NotPanics(t, func() { e.Emit(osc.PathCPUTemp, 40) })
}

func TestEncode(t *testing.T) {
	buf, err := osc.Encode(osc.PathNetDown, 0.5)
	require.NoError(t, err)
	// 28 byte address padded to 32, ",f" type tag padded to 4, one float.
	assert.Len(t, buf, 32+4+4)
	assert.Equal(t, "/avatar/parameters/Wifi_Down", string(buf[:28]))
}
