package jedis

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServerNewAddrShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BindAddr = "127.0.0.1:0"
	cfg.PollTimeout = 5 * time.Millisecond

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Shutdown()

	time.Sleep(20 * time.Millisecond)
	require.NotEmpty(t, s.Addr())

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+PONG\r\n", line)

	require.NoError(t, s.Shutdown())
}
