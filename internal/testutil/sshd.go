// Package testutil provides test helpers: an in-process SSH device and jump
// host, and Redis helpers for integration tests.
package testutil

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// includeRe matches "show ... running-config | include <text>" and its
// abbreviations (in, inc, i).
var includeRe = regexp.MustCompile(`^show .*running-config\s*\|\s*(?:include|inc|in|i)\s+(.*)$`)

// SSHDevice is an in-process SSH server that behaves like a network device
// CLI. With AllowForwarding set it also acts as a jump host, serving
// direct-tcpip channels.
type SSHDevice struct {
	User     string
	Password string

	// Hostname forms the prompt "<Hostname>#". Defaults to "router".
	Hostname string

	// RunningConfig is searched by "show running-config | include" commands.
	RunningConfig string

	// Stall lists substrings; a command containing one is echoed but never
	// answered, as a hung device would.
	Stall []string

	// Slow lists substrings; a command containing one is echoed at once but
	// answered only after SlowDelay, as a device that is busy would.
	Slow      []string
	SlowDelay time.Duration

	AllowForwarding bool

	// SFTP enables the sftp subsystem, serving the local filesystem.
	SFTP bool

	listener net.Listener
	config   *ssh.ServerConfig
	wg       sync.WaitGroup

	conns    atomic.Int64
	forwards atomic.Int64

	mu       sync.Mutex
	commands []string
	logins   int
}

// StartSSHDevice starts d on a random loopback port and stops it when the
// test ends.
func StartSSHDevice(t *testing.T, d *SSHDevice) *SSHDevice {
	t.Helper()

	if d.Hostname == "" {
		d.Hostname = "router"
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		t.Fatalf("host key signer: %v", err)
	}

	d.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == d.User && string(pass) == d.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
	}
	d.config.AddHostKey(signer)

	d.listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting SSH device: %v", err)
	}

	d.wg.Add(1)
	go d.acceptLoop()

	t.Cleanup(d.Close)
	return d
}

// Addr returns the host:port the device listens on.
func (d *SSHDevice) Addr() string {
	return d.listener.Addr().String()
}

// ActiveConns returns the number of authenticated SSH connections still open.
func (d *SSHDevice) ActiveConns() int64 {
	return d.conns.Load()
}

// ActiveForwards returns the number of direct-tcpip channels still open.
func (d *SSHDevice) ActiveForwards() int64 {
	return d.forwards.Load()
}

// Logins returns the number of successful logins so far.
func (d *SSHDevice) Logins() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logins
}

// Commands returns every CLI line received, in order.
func (d *SSHDevice) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

// Close stops accepting connections. Open connections end when their
// clients close them.
func (d *SSHDevice) Close() {
	d.listener.Close()
	d.wg.Wait()
}

func (d *SSHDevice) acceptLoop() {
	defer d.wg.Done()
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}
		go d.serveConn(conn)
	}
}

func (d *SSHDevice) serveConn(nConn net.Conn) {
	conn, chans, reqs, err := ssh.NewServerConn(nConn, d.config)
	if err != nil {
		nConn.Close()
		return
	}
	defer conn.Close()

	d.conns.Add(1)
	defer d.conns.Add(-1)
	d.mu.Lock()
	d.logins++
	d.mu.Unlock()

	go ssh.DiscardRequests(reqs)
	for newCh := range chans {
		switch newCh.ChannelType() {
		case "session":
			go d.serveSession(newCh)
		case "direct-tcpip":
			go d.serveForward(newCh)
		default:
			newCh.Reject(ssh.UnknownChannelType, newCh.ChannelType())
		}
	}
}

func (d *SSHDevice) serveSession(newCh ssh.NewChannel) {
	ch, reqs, err := newCh.Accept()
	if err != nil {
		return
	}

	mode := make(chan string, 1)
	go func() {
		started := false
		for req := range reqs {
			ok := false
			switch req.Type {
			case "pty-req", "window-change", "env":
				ok = true
			case "shell":
				ok = !started && len(req.Payload) == 0
				if ok {
					started = true
					mode <- "shell"
				}
			case "subsystem":
				var sub struct{ Name string }
				ok = !started && d.SFTP && ssh.Unmarshal(req.Payload, &sub) == nil && sub.Name == "sftp"
				if ok {
					started = true
					mode <- "sftp"
				}
			}
			if req.WantReply {
				req.Reply(ok, nil)
			}
		}
		if !started {
			close(mode)
		}
	}()

	switch <-mode {
	case "shell":
		d.serveCLI(ch)
	case "sftp":
		d.serveSFTP(ch)
	default:
		ch.Close()
	}
}

// serveSFTP serves the real filesystem; tests pass absolute temp paths.
func (d *SSHDevice) serveSFTP(ch ssh.Channel) {
	defer ch.Close()
	srv, err := sftp.NewServer(ch)
	if err != nil {
		return
	}
	srv.Serve()
	srv.Close()
}

// serveCLI reads one command per line, echoes it and answers followed by
// the prompt.
func (d *SSHDevice) serveCLI(ch ssh.Channel) {
	defer ch.Close()

	prompt := d.Hostname + "#"
	io.WriteString(ch, "\r\nWelcome to "+d.Hostname+"\r\n\r\n"+prompt)

	r := bufio.NewReader(ch)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		d.mu.Lock()
		d.commands = append(d.commands, line)
		d.mu.Unlock()

		io.WriteString(ch, line+"\r\n")
		if line == "exit" {
			return
		}
		if d.stalls(line) {
			continue
		}
		if matchesAny(line, d.Slow) {
			time.Sleep(d.SlowDelay)
		}
		io.WriteString(ch, d.respond(line)+prompt)
	}
}

func (d *SSHDevice) stalls(line string) bool {
	return matchesAny(line, d.Stall)
}

func matchesAny(line string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

func (d *SSHDevice) respond(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return ""
	case strings.HasPrefix(line, "terminal length"):
		return ""
	}

	m := includeRe.FindStringSubmatch(line)
	if m == nil {
		return "                ^\r\n% Invalid input detected at '^' marker.\r\n\r\n"
	}

	var b strings.Builder
	b.WriteString("Building configuration...\r\n\r\n")
	for _, cl := range strings.Split(d.RunningConfig, "\n") {
		if strings.Contains(cl, m[1]) {
			b.WriteString(cl + "\r\n")
		}
	}
	return b.String()
}

// forwardRequest is the payload of a direct-tcpip channel open (RFC 4254 7.2).
type forwardRequest struct {
	Host     string
	Port     uint32
	OrigHost string
	OrigPort uint32
}

func (d *SSHDevice) serveForward(newCh ssh.NewChannel) {
	if !d.AllowForwarding {
		newCh.Reject(ssh.Prohibited, "port forwarding is disabled")
		return
	}

	var req forwardRequest
	if err := ssh.Unmarshal(newCh.ExtraData(), &req); err != nil {
		newCh.Reject(ssh.ConnectionFailed, "malformed forward request")
		return
	}

	target, err := net.DialTimeout("tcp", net.JoinHostPort(req.Host, strconv.Itoa(int(req.Port))), 2*time.Second)
	if err != nil {
		newCh.Reject(ssh.ConnectionFailed, err.Error())
		return
	}
	defer target.Close()

	ch, reqs, err := newCh.Accept()
	if err != nil {
		return
	}
	defer ch.Close()
	go ssh.DiscardRequests(reqs)

	d.forwards.Add(1)
	defer d.forwards.Add(-1)

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(target, ch)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(ch, target)
		done <- struct{}{}
	}()
	<-done
}

// StartBlackhole listens on a random loopback port, accepts connections and
// never writes to them. It stands in for a device whose SSH daemon hangs.
func StartBlackhole(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting blackhole: %v", err)
	}

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		l.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	return l.Addr().String()
}

// ClosedPort returns a loopback address with nothing listening on it.
func ClosedPort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

// Eventually polls cond every 10ms until it holds or timeout passes.
func Eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
