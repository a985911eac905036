// Package handlers runs Whispering Woods player sessions: the save-slot
// prompt, the command loop, game and navigation commands, and the admin
// room editor, over any line-oriented terminal.
package handlers

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

// Terminal is the line-oriented client a session talks to. *telnet.Conn
// satisfies it, as does StreamTerminal.
type Terminal interface {
	ReadLine() (string, error)
	ReadPassword() (string, error)
	WriteLine(text string) error
	WritePrompt(text string) error
}

// StreamTerminal is a Terminal over plain reader and writer streams, used by
// the console client.
type StreamTerminal struct {
	r *bufio.Reader
	w io.Writer

	mu sync.Mutex
	// ReadSecret, when set, reads passwords instead of ReadLine, so a
	// console can turn echo off.
	ReadSecret func() (string, error)
}

// NewStreamTerminal creates a StreamTerminal reading r and writing w.
func NewStreamTerminal(r io.Reader, w io.Writer) *StreamTerminal {
	return &StreamTerminal{r: bufio.NewReader(r), w: w}
}

// ReadLine returns the next line without its terminator.
//
// Postcondition: A final unterminated line is returned without error; io.EOF
// is returned only when nothing is left.
func (t *StreamTerminal) ReadLine() (string, error) {
	line, err := t.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadPassword reads a line through ReadSecret if set, else ReadLine.
func (t *StreamTerminal) ReadPassword() (string, error) {
	if t.ReadSecret != nil {
		return t.ReadSecret()
	}
	return t.ReadLine()
}

// WriteLine writes text and a newline.
func (t *StreamTerminal) WriteLine(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, text+"\n")
	return err
}

// WritePrompt writes text with no newline.
func (t *StreamTerminal) WritePrompt(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, text)
	return err
}
