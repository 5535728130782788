// Package transport opens interactive SSH sessions to network devices, either
// directly or through a jump host.
package transport

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/netcensus/netcensus/pkg/model"
	"github.com/netcensus/netcensus/pkg/util"
)

// Defaults applied by NewManager for zero-valued Options.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultPromptPattern = `^\S+#\s*$`
	DefaultPagingCommand = "terminal length 0"
)

// Options tunes session establishment.
type Options struct {
	// Timeout bounds each connection step: TCP dial, SSH handshake, tunnel
	// channel open, shell start and the first prompt.
	Timeout time.Duration

	// PromptPattern is a regular expression matched against the last,
	// unterminated line of device output to detect the CLI prompt.
	PromptPattern string

	// PagingCommand is sent once after login to disable output paging.
	// Set NoPaging to skip it.
	PagingCommand string
	NoPaging      bool

	// HostKeyCallback verifies device and jump host keys. Nil accepts any key.
	HostKeyCallback ssh.HostKeyCallback
}

// SessionFactory opens sessions to devices. A factory never shares a
// connection between two sessions.
type SessionFactory interface {
	Open(ctx context.Context, dev model.Device) (Session, error)
}

// Manager builds the session factory for a run: direct when there is no jump
// host, tunneled otherwise.
type Manager struct {
	opts   Options
	prompt *regexp.Regexp
}

// NewManager validates opts and fills in defaults.
func NewManager(opts Options) (*Manager, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PromptPattern == "" {
		opts.PromptPattern = DefaultPromptPattern
	}
	if opts.PagingCommand == "" && !opts.NoPaging {
		opts.PagingCommand = DefaultPagingCommand
	}
	if opts.HostKeyCallback == nil {
		// Devices are commonly reached by IP with rotating keys; operators
		// who pin keys pass their own callback.
		opts.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	prompt, err := regexp.Compile(opts.PromptPattern)
	if err != nil {
		return nil, fmt.Errorf("prompt pattern %q: %w", opts.PromptPattern, err)
	}
	return &Manager{opts: opts, prompt: prompt}, nil
}

// Factory returns the session factory for jump. A nil jump host selects
// direct connections.
func (m *Manager) Factory(jump *model.JumpHost) SessionFactory {
	if jump == nil {
		return &directFactory{m: m}
	}
	return &tunnelFactory{m: m, jump: *jump}
}

// Open is a convenience for Factory(jump).Open(ctx, dev).
func (m *Manager) Open(ctx context.Context, dev model.Device, jump *model.JumpHost) (Session, error) {
	return m.Factory(jump).Open(ctx, dev)
}

// Dial opens an authenticated SSH client to host without a shell, for
// callers that need another subsystem such as SFTP. The caller closes it.
func (m *Manager) Dial(ctx context.Context, host model.JumpHost) (_ *ssh.Client, err error) {
	var stack closeStack
	defer func() {
		if err != nil {
			stack.close()
		}
	}()
	return m.connect(ctx, &stack, host.Address(), host.User, host.Password)
}

// Timeout returns the effective connection timeout.
func (m *Manager) Timeout() time.Duration {
	return m.opts.Timeout
}

func (m *Manager) clientConfig(user, password string) *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: m.opts.HostKeyCallback,
		Timeout:         m.opts.Timeout,
	}
}

// dialTCP opens the raw TCP connection to addr.
func (m *Manager) dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: m.opts.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

// handshake runs the SSH client handshake over conn. The caller owns conn
// and must close it if handshake fails; a stalled handshake is abandoned
// after the timeout and unblocks once conn is closed.
func (m *Manager) handshake(ctx context.Context, conn net.Conn, addr, user, password string) (*ssh.Client, error) {
	return withTimeout(ctx, m.opts.Timeout, func() (*ssh.Client, error) {
		c, chans, reqs, err := ssh.NewClientConn(conn, addr, m.clientConfig(user, password))
		if err != nil {
			return nil, err
		}
		return ssh.NewClient(c, chans, reqs), nil
	})
}

// connect dials addr and authenticates, pushing what it opens onto stack.
func (m *Manager) connect(ctx context.Context, stack *closeStack, addr, user, password string) (*ssh.Client, error) {
	conn, err := m.dialTCP(ctx, addr)
	if err != nil {
		return nil, classify(addr, err, util.ErrConnection)
	}
	stack.push(conn)

	client, err := m.handshake(ctx, conn, addr, user, password)
	if err != nil {
		return nil, classify(addr, err, util.ErrConnection)
	}
	stack.push(client)
	return client, nil
}

// startShell opens the interactive shell, waits for the first prompt and
// disables paging. On success the session takes ownership of stack.
func (m *Manager) startShell(ctx context.Context, stack *closeStack, addr string, client *ssh.Client) (*shellSession, error) {
	s, err := withTimeout(ctx, m.opts.Timeout, func() (*shellSession, error) {
		return newShellSession(addr, client, m.prompt)
	})
	if err != nil {
		return nil, classify(addr, err, util.ErrConnection)
	}

	if err := s.waitPrompt(ctx, m.opts.Timeout); err != nil {
		s.Close()
		return nil, classify(addr, fmt.Errorf("waiting for prompt: %w", err), util.ErrConnection)
	}
	if m.opts.PagingCommand != "" && !m.opts.NoPaging {
		if _, err := s.Send(ctx, m.opts.PagingCommand, m.opts.Timeout); err != nil {
			s.Close()
			return nil, classify(addr, fmt.Errorf("disable paging: %w", err), util.ErrConnection)
		}
	}

	s.closers = *stack
	*stack = nil
	return s, nil
}

// directFactory dials each device itself.
type directFactory struct {
	m *Manager
}

func (f *directFactory) Open(ctx context.Context, dev model.Device) (_ Session, err error) {
	addr := dev.Address()
	var stack closeStack
	defer func() {
		if err != nil {
			stack.close()
		}
	}()

	util.WithDevice(dev.Name).Debugf("dialing %s", addr)
	client, err := f.m.connect(ctx, &stack, addr, dev.User, dev.Password)
	if err != nil {
		return nil, err
	}
	s, err := f.m.startShell(ctx, &stack, addr, client)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// tunnelFactory reaches each device through its own connection to the jump
// host and a direct-tcpip channel opened over it.
type tunnelFactory struct {
	m    *Manager
	jump model.JumpHost
}

func (f *tunnelFactory) Open(ctx context.Context, dev model.Device) (_ Session, err error) {
	addr := dev.Address()
	jumpAddr := f.jump.Address()
	var stack closeStack
	defer func() {
		if err != nil {
			stack.close()
		}
	}()

	log := util.WithDevice(dev.Name)
	log.Debugf("dialing jump host %s", jumpAddr)
	jumpClient, err := f.m.connect(ctx, &stack, jumpAddr, f.jump.User, f.jump.Password)
	if err != nil {
		return nil, fmt.Errorf("jump host: %w", err)
	}

	log.Debugf("forwarding to %s via %s", addr, jumpAddr)
	conn, err := withTimeout(ctx, f.m.opts.Timeout, func() (net.Conn, error) {
		return jumpClient.Dial("tcp", addr)
	})
	if err != nil {
		return nil, classify(addr, fmt.Errorf("forward via %s: %w", jumpAddr, err), util.ErrTunnel)
	}
	stack.push(conn)

	client, err := f.m.handshake(ctx, conn, addr, dev.User, dev.Password)
	if err != nil {
		return nil, classify(addr, fmt.Errorf("handshake via %s: %w", jumpAddr, err), util.ErrTunnel)
	}
	stack.push(client)

	s, err := f.m.startShell(ctx, &stack, addr, client)
	if err != nil {
		return nil, err
	}
	return s, nil
}
