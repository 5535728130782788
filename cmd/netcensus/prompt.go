package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/netcensus/netcensus/pkg/model"
	"github.com/netcensus/netcensus/pkg/settings"
)

// promptFunc asks for a secret.
type promptFunc func(label string) (string, error)

// readPassword prompts on stderr and reads a password without echo when
// stdin is a terminal, or a single line otherwise.
func readPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// jumpFlags holds the --jump-* flag values.
type jumpFlags struct {
	host     string
	user     string
	password string
}

// resolveJump builds the jump host from flags, falling back to settings for
// host and user and prompting for a missing password. No host means a
// direct run.
func resolveJump(s *settings.Settings, f jumpFlags, prompt promptFunc) (*model.JumpHost, error) {
	host := strings.TrimSpace(f.host)
	if host == "" {
		host = s.JumpHost
	}
	if host == "" {
		return nil, nil
	}

	user := strings.TrimSpace(f.user)
	if user == "" {
		user = s.JumpUser
	}
	if user == "" {
		return nil, fmt.Errorf("jump host %s: user required (--jump-user or 'netcensus settings set jump_user <user>')", host)
	}

	password := f.password
	if password == "" {
		p, err := prompt(fmt.Sprintf("Password for %s@%s", user, host))
		if err != nil {
			return nil, err
		}
		password = p
	}

	jump := model.NewJumpHost(host, user, password)
	if jump == nil {
		return nil, fmt.Errorf("jump host %s: password required", host)
	}
	return jump, nil
}

// fillPasswords prompts for devices that have no password, asking once per
// user name and reusing the answer for that user's other devices.
func fillPasswords(devices []model.Device, prompt promptFunc) error {
	known := make(map[string]string)
	for i := range devices {
		d := &devices[i]
		if d.Password != "" || len(d.Parameters()) == 0 {
			continue
		}
		p, ok := known[d.User]
		if !ok {
			var err error
			p, err = prompt(fmt.Sprintf("Password for %s (devices without one)", d.User))
			if err != nil {
				return err
			}
			known[d.User] = p
		}
		d.Password = p
	}
	return nil
}
