package filter

import (
	"reflect"
	"strings"
	"testing"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "banner and comments",
			raw:  "Building configuration...\n!\nntp server 10.0.0.1\n\n!\n",
			want: []string{"ntp server 10.0.0.1"},
		},
		{
			name: "empty",
			raw:  "",
			want: []string{},
		},
		{
			name: "only noise",
			raw:  "Current configuration : 4012 bytes\n! Last configuration change\n   \n\t\n",
			want: []string{},
		},
		{
			name: "case insensitive",
			raw:  "BUILDING CONFIGURATION...\ndate: Mon Jan 1\nsnmp-server community public RO\n",
			want: []string{"snmp-server community public RO"},
		},
		{
			name: "crlf and indentation kept",
			raw:  "interface Gi0/1\r\n ip address 10.1.1.1 255.255.255.0\r\n",
			want: []string{"interface Gi0/1", " ip address 10.1.1.1 255.255.255.0"},
		},
		{
			name: "bang anywhere in line",
			raw:  "banner motd ^Welcome!^\nlogging host 10.0.0.9\n",
			want: []string{"logging host 10.0.0.9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, count := Filter(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() lines = %q, want %q", got, tt.want)
			}
			if count != len(got) {
				t.Errorf("Filter() count = %d, len(lines) = %d", count, len(got))
			}
		})
	}
}

func TestFilter_NoKeptLineIsNoise(t *testing.T) {
	raw := strings.Join([]string{
		"Building configuration...",
		"",
		"Current configuration : 1234 bytes",
		"! Date: 2024-01-01",
		"hostname core1",
		"  ",
		"ntp server 1.1.1.1 prefer",
		"!",
		"end",
	}, "\n")

	lines, count := Filter(raw)
	if count != 3 {
		t.Fatalf("count = %d, want 3 (%q)", count, lines)
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			t.Errorf("blank line kept: %q", l)
		}
		for _, p := range SkipPatterns {
			if strings.Contains(strings.ToLower(l), strings.ToLower(p)) {
				t.Errorf("line %q matches skip pattern %q", l, p)
			}
		}
	}
}
