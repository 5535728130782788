package model

import (
	"reflect"
	"strings"
	"testing"
)

func TestDevice_Parameters(t *testing.T) {
	tests := []struct {
		name      string
		parameter string
		want      []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "   ", []string{}},
		{"single", "ntp", []string{"ntp"}},
		{"two with spaces", "ntp, snmp", []string{"ntp", "snmp"}},
		{"stray commas", " ,ntp,, snmp-server ,", []string{"ntp", "snmp-server"}},
		{"keeps order", "logging,aaa,ntp", []string{"logging", "aaa", "ntp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Device{Name: "10.0.0.1", Parameter: tt.parameter}
			got := d.Parameters()
			if got == nil {
				t.Fatal("Parameters() returned nil, want empty slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parameters() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDevice_Address(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"10.0.0.1", "10.0.0.1:22"},
		{"router1.example.net", "router1.example.net:22"},
		{"127.0.0.1:2222", "127.0.0.1:2222"},
		{"fe80::1", "[fe80::1]:22"},
		{"[fe80::1]:830", "[fe80::1]:830"},
	}
	for _, tt := range tests {
		if got := (Device{Name: tt.name}).Address(); got != tt.want {
			t.Errorf("Address(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDevice_StringMasksPassword(t *testing.T) {
	d := Device{Name: "10.0.0.1", User: "admin", Password: "hunter2", Parameter: "ntp"}
	s := d.String()
	if strings.Contains(s, "hunter2") {
		t.Errorf("String() leaks password: %s", s)
	}
	if !strings.Contains(s, "10.0.0.1") || !strings.Contains(s, "admin") {
		t.Errorf("String() = %s, want name and user", s)
	}
}

func TestNewJumpHost(t *testing.T) {
	tests := []struct {
		name                 string
		host, user, password string
		wantNil              bool
	}{
		{"complete", "bastion", "ops", "pw", false},
		{"empty password", "bastion", "ops", "", true},
		{"blank host", "  ", "ops", "pw", true},
		{"blank user", "bastion", " ", "pw", true},
		{"whitespace password", "bastion", "ops", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewJumpHost(tt.host, tt.user, tt.password)
			if (j == nil) != tt.wantNil {
				t.Errorf("NewJumpHost() = %v, wantNil %v", j, tt.wantNil)
			}
		})
	}

	j := NewJumpHost(" bastion ", "ops", "pw")
	if j.Host != "bastion" {
		t.Errorf("Host = %q, want trimmed %q", j.Host, "bastion")
	}
	if j.Address() != "bastion:22" {
		t.Errorf("Address() = %q, want %q", j.Address(), "bastion:22")
	}
}
