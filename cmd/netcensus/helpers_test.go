package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/netcensus/netcensus/pkg/model"
	"github.com/netcensus/netcensus/pkg/settings"
)

func TestResolveInventory(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		env      string
		settings string
		want     string
	}{
		{"default", "", "", "", settings.DefaultInventory},
		{"settings", "", "", "s.yaml", "s.yaml"},
		{"env over settings", "", "e.csv", "s.yaml", "e.csv"},
		{"flag over env", "f.yaml", "e.csv", "s.yaml", "f.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(inventoryEnv, tt.env)
			inventoryPath = tt.flag
			defer func() { inventoryPath = "" }()

			got := resolveInventory(&settings.Settings{Inventory: tt.settings})
			if got != tt.want {
				t.Errorf("resolveInventory() = %q, want %q", got, tt.want)
			}
		})
	}
}

// answer returns a prompt that always replies with reply and counts calls.
func answer(reply string, calls *[]string) promptFunc {
	return func(label string) (string, error) {
		*calls = append(*calls, label)
		return reply, nil
	}
}

func TestResolveJump_Direct(t *testing.T) {
	var calls []string
	jump, err := resolveJump(&settings.Settings{JumpUser: "ops"}, jumpFlags{}, answer("x", &calls))
	if err != nil || jump != nil {
		t.Fatalf("resolveJump() = %v, %v; want nil, nil", jump, err)
	}
	if len(calls) != 0 {
		t.Errorf("prompted %d times for a direct run", len(calls))
	}
}

func TestResolveJump(t *testing.T) {
	tests := []struct {
		name     string
		settings settings.Settings
		flags    jumpFlags
		reply    string
		want     *model.JumpHost
		prompts  int
		wantErr  string
	}{
		{
			name:  "flags",
			flags: jumpFlags{host: "bastion", user: "ops", password: "pw"},
			want:  &model.JumpHost{Host: "bastion", User: "ops", Password: "pw"},
		},
		{
			name:     "settings fallback",
			settings: settings.Settings{JumpHost: "bastion", JumpUser: "ops"},
			flags:    jumpFlags{password: "pw"},
			want:     &model.JumpHost{Host: "bastion", User: "ops", Password: "pw"},
		},
		{
			name:     "flags override settings",
			settings: settings.Settings{JumpHost: "old", JumpUser: "old"},
			flags:    jumpFlags{host: " bastion ", user: "ops", password: "pw"},
			want:     &model.JumpHost{Host: "bastion", User: "ops", Password: "pw"},
		},
		{
			name:    "prompted password",
			flags:   jumpFlags{host: "bastion", user: "ops"},
			reply:   "typed",
			want:    &model.JumpHost{Host: "bastion", User: "ops", Password: "typed"},
			prompts: 1,
		},
		{
			name:    "missing user",
			flags:   jumpFlags{host: "bastion", password: "pw"},
			wantErr: "user required",
		},
		{
			name:    "empty prompted password",
			flags:   jumpFlags{host: "bastion", user: "ops"},
			reply:   "  ",
			prompts: 1,
			wantErr: "password required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			s := tt.settings
			got, err := resolveJump(&s, tt.flags, answer(tt.reply, &calls))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want it to contain %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("resolveJump: %v", err)
			}
			if tt.want != nil && (got == nil || *got != *tt.want) {
				t.Errorf("jump = %+v, want %+v", got, tt.want)
			}
			if len(calls) != tt.prompts {
				t.Errorf("prompted %d times, want %d", len(calls), tt.prompts)
			}
		})
	}
}

func TestResolveJump_PromptError(t *testing.T) {
	boom := errors.New("no tty")
	_, err := resolveJump(&settings.Settings{}, jumpFlags{host: "b", user: "u"},
		func(string) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestFillPasswords(t *testing.T) {
	devices := []model.Device{
		{Name: "core1", User: "admin", Parameter: "ntp"},
		{Name: "core2", User: "admin", Parameter: "aaa"},
		{Name: "edge1", User: "ops", Password: "set", Parameter: "ntp"},
		{Name: "edge2", User: "noc", Parameter: "ntp"},
		{Name: "spare", User: "spare", Parameter: " , "},
	}
	var calls []string
	replies := map[string]string{"admin": "a-pw", "noc": "n-pw"}
	prompt := func(label string) (string, error) {
		calls = append(calls, label)
		for user, pw := range replies {
			if strings.Contains(label, " "+user+" ") {
				return pw, nil
			}
		}
		return "", errors.New("unexpected prompt " + label)
	}

	if err := fillPasswords(devices, prompt); err != nil {
		t.Fatalf("fillPasswords: %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("prompted %d times (%q), want once per user", len(calls), calls)
	}
	want := []string{"a-pw", "a-pw", "set", "n-pw", ""}
	for i, d := range devices {
		if d.Password != want[i] {
			t.Errorf("%s password = %q, want %q", d.Name, d.Password, want[i])
		}
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"secret\n", "secret", false},
		{"secret\r\n", "secret", false},
		{"no newline", "no newline", false},
		{"with spaces \n", "with spaces ", false},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := readLine(strings.NewReader(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("readLine(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("readLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadDevices_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.csv")
	csv := "Name,User,Password,Parameter\n10.0.0.1,admin,pw,\"ntp,aaa\"\n,x,y,z\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	inventoryPath = path
	defer func() { inventoryPath = "" }()

	devices, source, err := loadDevices(context.Background(), &settings.Settings{})
	if err != nil {
		t.Fatalf("loadDevices: %v", err)
	}
	if source != path {
		t.Errorf("source = %q, want %q", source, path)
	}
	if len(devices) != 1 || devices[0].Name != "10.0.0.1" || len(devices[0].Parameters()) != 2 {
		t.Errorf("devices = %+v", devices)
	}
}

func TestOpenStore_NotConfigured(t *testing.T) {
	if _, err := openStore(context.Background(), &settings.Settings{}); err == nil {
		t.Error("openStore without redis_addr should fail")
	}
}

func TestSettingRows(t *testing.T) {
	rows := settingRows(&settings.Settings{JumpHost: "bastion", Concurrency: 4})
	got := make(map[string]string, len(rows))
	for _, r := range rows {
		got[r[0]] = r[1]
	}
	if len(got) != len(settings.Keys()) {
		t.Errorf("%d rows, want one per key %v", len(got), settings.Keys())
	}
	for _, k := range settings.Keys() {
		if _, ok := got[k]; !ok {
			t.Errorf("missing row for %q", k)
		}
	}
	if got["jump_host"] != "bastion" || got["concurrency"] != "4" {
		t.Errorf("stored values not shown: %v", got)
	}
	if got["jump_user"] != "(not set)" {
		t.Errorf("jump_user = %q, want (not set)", got["jump_user"])
	}
}
