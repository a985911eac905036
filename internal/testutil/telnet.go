package testutil

import (
	"bytes"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/whisperingwoods/woods/internal/frontend/telnet"
)

// TelnetClient drives a server session from a test.
type TelnetClient struct {
	t    *testing.T
	conn net.Conn
	buf  bytes.Buffer
}

// NewTelnetClient dials addr and closes the connection when the test ends.
//
// Postcondition: Returns a connected client or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return &TelnetClient{t: t, conn: conn}
}

// ReadUntil returns everything received since the last match, up to and
// including substr. Telnet command sequences are stripped.
//
// Postcondition: Fails the test if substr is not seen within timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 1024)
	for {
		if i := bytes.Index(c.buf.Bytes(), []byte(substr)); i >= 0 {
			out := string(c.buf.Next(i + len(substr)))
			return out
		}
		n, err := c.conn.Read(tmp)
		c.buf.Write(telnet.FilterIAC(tmp[:n]))
		if err != nil && bytes.Index(c.buf.Bytes(), []byte(substr)) < 0 {
			c.t.Fatalf("reading until %q: got %q: %v", substr, c.buf.String(), err)
		}
	}
}

// Send writes text and a CRLF.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the connection early.
func (c *TelnetClient) Close() {
	c.conn.Close()
}
