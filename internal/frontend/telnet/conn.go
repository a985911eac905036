// Package telnet serves game sessions over raw Telnet connections.
package telnet

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet command bytes (RFC 854) and the options the server negotiates.
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

type filterState int

const (
	stateData filterState = iota
	stateCommand
	stateOption
	stateSub
	stateSubIAC
)

// iacFilter strips Telnet command sequences from a byte stream one byte at a time.
type iacFilter struct {
	state filterState
}

// feed consumes b and reports whether it is a data byte. An escaped IAC
// (IAC IAC) yields a single 0xFF data byte.
func (f *iacFilter) feed(b byte) bool {
	switch f.state {
	case stateCommand:
		switch b {
		case IAC:
			f.state = stateData
			return true
		case WILL, WONT, DO, DONT:
			f.state = stateOption
		case SB:
			f.state = stateSub
		default:
			f.state = stateData
		}
		return false
	case stateOption:
		f.state = stateData
		return false
	case stateSub:
		if b == IAC {
			f.state = stateSubIAC
		}
		return false
	case stateSubIAC:
		if b == SE {
			f.state = stateData
		} else {
			f.state = stateSub
		}
		return false
	default:
		if b == IAC {
			f.state = stateCommand
			return false
		}
		return true
	}
}

// FilterIAC removes Telnet command sequences from input.
//
// Postcondition: Returns the data bytes of input in order; an unterminated
// trailing sequence is dropped.
func FilterIAC(input []byte) []byte {
	var f iacFilter
	out := make([]byte, 0, len(input))
	for _, b := range input {
		if f.feed(b) {
			out = append(out, b)
		}
	}
	return out
}

// Conn is a line-oriented Telnet connection. Reads are not safe for
// concurrent use; writes are.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	filter iacFilter
	pendCR bool

	wmu          sync.Mutex
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. Zero timeouts disable the matching deadline.
//
// Precondition: raw must be an open connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReader(raw),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate offers to suppress go-ahead so clients run in character-at-a-time friendly mode.
func (c *Conn) Negotiate() error {
	return c.write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next line without its terminator. CR, LF and CRLF all
// end a line. Command sequences, control bytes other than tab, and bare 0xFF
// are dropped.
//
// Postcondition: On error the partial line read so far is returned with it.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	var sb strings.Builder
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return sb.String(), err
		}
		if !c.filter.feed(b) {
			continue
		}
		if c.pendCR {
			c.pendCR = false
			if b == '\n' || b == 0 {
				continue
			}
		}
		switch {
		case b == '\r':
			c.pendCR = true
			return sb.String(), nil
		case b == '\n':
			return sb.String(), nil
		case b == IAC, b < 32 && b != '\t', b == 127:
			continue
		}
		sb.WriteByte(b)
	}
}

// ReadPassword reads a line with client echo switched off, restoring echo afterwards.
func (c *Conn) ReadPassword() (string, error) {
	if err := c.write([]byte{IAC, WILL, OptEcho}); err != nil {
		return "", err
	}
	line, err := c.ReadLine()
	_ = c.write([]byte{IAC, WONT, OptEcho, '\r', '\n'})
	return line, err
}

// WriteLine writes text followed by CRLF. Bare LFs inside text become CRLF.
func (c *Conn) WriteLine(text string) error {
	return c.write([]byte(toCRLF(text) + "\r\n"))
}

// WritePrompt writes text with no line terminator.
func (c *Conn) WritePrompt(text string) error {
	return c.write([]byte(toCRLF(text)))
}

func (c *Conn) write(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

func toCRLF(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}
