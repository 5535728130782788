package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/netcensus/netcensus/pkg/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"devices.yaml", FormatYAML, false},
		{"devices.YML", FormatYAML, false},
		{"/etc/netcensus/devices.csv", FormatCSV, false},
		{"devices.xlsx", "", true},
		{"devices", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatOf(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("error %v should match ErrUnknownFormat", err)
			}
			if got != tt.want {
				t.Errorf("FormatOf(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "devices.yaml", `devices:
  - name: 10.0.0.1
    user: admin
    password: " s3cret "
    parameter: ntp, snmp
  - name: "  "
    user: ghost
    parameter: aaa
  - name: " core2 "
    user: ops
    password: pw
`)

	devices, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := []model.Device{
		{Name: "10.0.0.1", User: "admin", Password: " s3cret ", Parameter: "ntp, snmp"},
		{Name: "core2", User: "ops", Password: "pw"},
	}
	if !reflect.DeepEqual(devices, want) {
		t.Errorf("LoadFile = %+v, want %+v", devices, want)
	}
	if got := devices[0].Parameters(); !reflect.DeepEqual(got, []string{"ntp", "snmp"}) {
		t.Errorf("Parameters() = %q", got)
	}
}

func TestLoadFile_YAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "devices: [name: x"},
		{"unknown field", "devices:\n  - name: x\n    port: 22\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeFile(t, "d.yaml", tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile_CSV(t *testing.T) {
	path := writeFile(t, "devices.csv", "\ufeffParameter,name,USER,Password,Notes\n"+
		"\"ntp, snmp\",10.0.0.1,admin,secret,lab\n"+
		",,,,empty row\n"+
		"aaa,core2,ops\n")

	devices, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := []model.Device{
		{Name: "10.0.0.1", User: "admin", Password: "secret", Parameter: "ntp, snmp"},
		{Name: "core2", User: "ops", Parameter: "aaa"},
	}
	if !reflect.DeepEqual(devices, want) {
		t.Errorf("LoadFile = %+v, want %+v", devices, want)
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Name,User,Password\nx,y,z\n"))
	if err == nil || !strings.Contains(err.Error(), `"Parameter"`) {
		t.Errorf("error = %v, want missing Parameter column", err)
	}
}

func TestReadEmpty(t *testing.T) {
	for name, read := range map[string]func(string) ([]model.Device, error){
		"yaml": func(s string) ([]model.Device, error) { return ReadYAML(strings.NewReader(s)) },
		"csv":  func(s string) ([]model.Device, error) { return ReadCSV(strings.NewReader(s)) },
	} {
		devices, err := read("")
		if err != nil {
			t.Errorf("%s: empty input error = %v", name, err)
		}
		if devices == nil || len(devices) != 0 {
			t.Errorf("%s: empty input = %#v, want empty slice", name, devices)
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrNotExist", err)
	}
}

func TestSaveFile_LoadsBack(t *testing.T) {
	devices := []model.Device{
		{Name: "10.0.0.1", User: "admin", Password: "a,b\"c", Parameter: "ntp, snmp"},
		{Name: "core2", User: "ops", Password: "pw", Parameter: "aaa"},
	}
	for _, name := range []string{"out.yaml", "out.csv"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)
			if err := SaveFile(path, devices); err != nil {
				t.Fatalf("SaveFile: %v", err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if !reflect.DeepEqual(got, devices) {
				t.Errorf("loaded %+v, want %+v", got, devices)
			}
		})
	}
}

func TestWriteTemplate(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "devices.csv")
	if err := WriteTemplate(csvPath); err != nil {
		t.Fatalf("WriteTemplate(csv): %v", err)
	}
	data, _ := os.ReadFile(csvPath)
	if string(data) != "Name,User,Password,Parameter\n" {
		t.Errorf("CSV template = %q", data)
	}

	yamlPath := filepath.Join(dir, "devices.yaml")
	if err := WriteTemplate(yamlPath); err != nil {
		t.Fatalf("WriteTemplate(yaml): %v", err)
	}
	devices, err := LoadFile(yamlPath)
	if err != nil || len(devices) != 0 {
		t.Errorf("YAML template loads as %v, %v", devices, err)
	}

	if err := WriteTemplate(csvPath); !errors.Is(err, os.ErrExist) {
		t.Errorf("second WriteTemplate error = %v, want ErrExist", err)
	}
}

func TestRemove(t *testing.T) {
	path := writeFile(t, "devices.csv", "Name,User,Password,Parameter\n")
	if err := Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still present")
	}
	if err := Remove(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Remove(missing) error = %v, want ErrNotExist", err)
	}
}

func TestDeviceFields(t *testing.T) {
	d := model.Device{Name: "core1", User: "admin", Password: "pw", Parameter: "ntp"}
	if DeviceKey(d.Name) != "DEVICE|core1" {
		t.Errorf("DeviceKey = %q", DeviceKey(d.Name))
	}

	fields := deviceFields(d)
	vals := make(map[string]string, len(fields))
	for k, v := range fields {
		vals[k] = v.(string)
	}
	if got := deviceFromFields("core1", vals); got != d {
		t.Errorf("deviceFromFields = %+v, want %+v", got, d)
	}
}
