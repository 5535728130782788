// Package model defines the device, result and report types of an automation run.
package model

import (
	"fmt"
	"net"
	"strings"

	"github.com/netcensus/netcensus/pkg/util"
)

// SSHPort is the port used for devices and jump hosts that do not name one.
const SSHPort = "22"

// Device is one row of the device inventory.
type Device struct {
	Name      string `json:"name" yaml:"name"` // hostname or IP, optionally host:port
	User      string `json:"user" yaml:"user"`
	Password  string `json:"password" yaml:"password"`
	Parameter string `json:"parameter" yaml:"parameter"` // comma-separated keywords
}

// Parameters returns the trimmed, non-empty keywords of the Parameter field
// in their original order. An empty or whitespace-only field yields none.
func (d Device) Parameters() []string {
	params := util.SplitCommaSeparated(d.Parameter)
	if params == nil {
		return []string{}
	}
	return params
}

// Address returns the host:port to dial for the device.
func (d Device) Address() string {
	return hostPort(d.Name)
}

// String renders the device with the password masked.
func (d Device) String() string {
	return fmt.Sprintf("Device(name=%s, user=%s, password=*****, parameter=%s)", d.Name, d.User, d.Parameter)
}

// JumpHost is the bastion used to reach devices that are not directly routable.
// A nil *JumpHost means devices are dialed directly.
type JumpHost struct {
	Host     string
	User     string
	Password string
}

// NewJumpHost returns a jump host configuration, or nil when any of the
// three values is empty after trimming.
func NewJumpHost(host, user, password string) *JumpHost {
	host = strings.TrimSpace(host)
	user = strings.TrimSpace(user)
	if host == "" || user == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	return &JumpHost{Host: host, User: user, Password: password}
}

// Address returns the host:port to dial for the jump host.
func (j *JumpHost) Address() string {
	return hostPort(j.Host)
}

// hostPort appends the SSH port unless name already carries one.
func hostPort(name string) string {
	if _, _, err := net.SplitHostPort(name); err == nil {
		return name
	}
	return net.JoinHostPort(strings.Trim(name, "[]"), SSHPort)
}
