package transport

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/netcensus/netcensus/pkg/util"
)

// Session is an interactive CLI session on one device. A Session is owned by
// a single caller and must be closed by it.
type Session interface {
	// Host is the address the session is connected to.
	Host() string
	// Send writes command, waits up to timeout for the device prompt and
	// returns the output without the echoed command and the trailing prompt.
	Send(ctx context.Context, command string, timeout time.Duration) (string, error)
	// Close releases the session and every connection it was opened through.
	Close() error
}

// shellSession drives an interactive shell over a PTY. The device output is
// pumped into a channel so reads can be bounded by a timer.
type shellSession struct {
	host    string
	prompt  *regexp.Regexp
	sess    *ssh.Session
	stdin   io.WriteCloser
	output  chan []byte
	readErr error
	done    chan struct{}

	closers   closeStack
	closeOnce sync.Once
	closeErr  error
}

// newShellSession requests a PTY and a shell on client and starts pumping
// its output. On failure nothing opened here is left running.
func newShellSession(host string, client *ssh.Client, prompt *regexp.Regexp) (*shellSession, error) {
	sess, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("SSH session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("vt100", 0, 511, modes); err != nil {
		sess.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	s := &shellSession{
		host:   host,
		prompt: prompt,
		sess:   sess,
		stdin:  stdin,
		output: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go s.pump(stdout)
	return s, nil
}

func (s *shellSession) Host() string {
	return s.host
}

func (s *shellSession) pump(r io.Reader) {
	defer close(s.output)
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.output <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
	}
}

// waitPrompt consumes the login banner up to the first prompt.
func (s *shellSession) waitPrompt(ctx context.Context, timeout time.Duration) error {
	_, err := s.readUntil(ctx, timeout, s.atPrompt)
	return err
}

func (s *shellSession) Send(ctx context.Context, command string, timeout time.Duration) (string, error) {
	s.drain()
	if _, err := io.WriteString(s.stdin, command+"\n"); err != nil {
		return "", fmt.Errorf("write %q to %s: %w", command, s.host, err)
	}

	text, err := s.readUntil(ctx, timeout, func(text string) bool {
		body, ok := stripEcho(text, command)
		return ok && s.atPrompt(body)
	})
	if err != nil {
		return "", fmt.Errorf("%q on %s: %w", command, s.host, err)
	}

	body, _ := stripEcho(text, command)
	return stripPrompt(body), nil
}

// drain discards output that arrived between commands.
func (s *shellSession) drain() {
	for {
		select {
		case _, ok := <-s.output:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// readUntil accumulates output until complete reports true for the
// normalized text, the timeout fires, ctx ends or the shell closes.
func (s *shellSession) readUntil(ctx context.Context, timeout time.Duration, complete func(string) bool) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var buf []byte
	for {
		select {
		case chunk, ok := <-s.output:
			if !ok {
				err := s.readErr
				if err == nil {
					err = io.EOF
				}
				return "", fmt.Errorf("session closed by device: %w", err)
			}
			buf = append(buf, chunk...)
			if text := normalize(buf); complete(text) {
				return text, nil
			}
		case <-timer.C:
			return "", fmt.Errorf("no prompt after %s: %w", timeout, util.ErrTimeout)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (s *shellSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.sess.Close()
		s.closeErr = s.closers.close()
	})
	return s.closeErr
}

// normalize converts CRLF line endings and drops stray carriage returns.
func normalize(b []byte) string {
	text := strings.ReplaceAll(string(b), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "")
}

// atPrompt reports whether the last line of text, still unterminated, is a
// device prompt. Complete lines never count, so a config line that happens
// to end a chunk with "#" does not end the read.
func (s *shellSession) atPrompt(text string) bool {
	return s.prompt.MatchString(text[strings.LastIndexByte(text, '\n')+1:])
}

// stripEcho returns the text after the line echoing command. Output before
// the echo is stale, typically the late reply to a command that timed out,
// and is discarded. ok is false until the echo line is complete.
func stripEcho(text, command string) (body string, ok bool) {
	cmd := strings.TrimSpace(command)
	for start := 0; ; {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			return "", false
		}
		line := strings.TrimSpace(text[start : start+end])
		if strings.HasSuffix(line, cmd) {
			return text[start+end+1:], true
		}
		start += end + 1
	}
}

// stripPrompt drops the final line, which holds the device prompt.
func stripPrompt(body string) string {
	idx := strings.LastIndexByte(body, '\n')
	if idx < 0 {
		return ""
	}
	return body[:idx]
}
