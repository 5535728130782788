// Package inventory loads and stores the device list: YAML and CSV files on
// disk, and a shared Redis store.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/netcensus/netcensus/pkg/model"
)

// Columns of a tabular inventory, in template order.
var Columns = []string{"Name", "User", "Password", "Parameter"}

// ErrUnknownFormat is returned for paths whose extension is not a supported
// inventory format.
var ErrUnknownFormat = errors.New("unknown inventory format")

// Format identifies an inventory file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// FormatOf returns the format of path from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s (want .yaml, .yml or .csv)", ErrUnknownFormat, path)
}

// LoadFile reads the devices listed in path. Rows without a name are skipped.
func LoadFile(path string) ([]model.Device, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	defer f.Close()

	var devices []model.Device
	switch format {
	case FormatYAML:
		devices, err = ReadYAML(f)
	case FormatCSV:
		devices, err = ReadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing inventory %s: %w", path, err)
	}
	return devices, nil
}

// SaveFile writes devices to path in the format its extension names,
// replacing any existing file.
func SaveFile(path string, devices []model.Device) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating inventory directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating inventory: %w", err)
	}

	switch format {
	case FormatYAML:
		err = WriteYAML(f, devices)
	case FormatCSV:
		err = WriteCSV(f, devices)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing inventory %s: %w", path, err)
	}
	return nil
}

// WriteTemplate creates an empty inventory at path. An existing file is
// left alone and reported through os.ErrExist.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("inventory %s: %w", path, os.ErrExist)
	}
	return SaveFile(path, nil)
}

// Remove deletes the inventory at path. A missing file is reported through
// os.ErrNotExist.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing inventory: %w", err)
	}
	return nil
}

// clean trims the identifying fields of d. Passwords are kept verbatim.
func clean(d model.Device) model.Device {
	d.Name = strings.TrimSpace(d.Name)
	d.User = strings.TrimSpace(d.User)
	d.Parameter = strings.TrimSpace(d.Parameter)
	return d
}

// keep filters out devices without a name, cleaning the rest.
func keep(devices []model.Device) []model.Device {
	out := make([]model.Device, 0, len(devices))
	for _, d := range devices {
		d = clean(d)
		if d.Name == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}
