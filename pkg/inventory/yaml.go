package inventory

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/netcensus/netcensus/pkg/model"
)

// yamlFile is the on-disk layout of a YAML inventory.
type yamlFile struct {
	Devices []model.Device `yaml:"devices"`
}

// ReadYAML parses a YAML inventory:
//
//	devices:
//	  - name: 10.0.0.1
//	    user: admin
//	    password: secret
//	    parameter: ntp, snmp
func ReadYAML(r io.Reader) ([]model.Device, error) {
	var doc yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return []model.Device{}, nil
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return keep(doc.Devices), nil
}

// WriteYAML writes devices as a YAML inventory.
func WriteYAML(w io.Writer, devices []model.Device) error {
	if devices == nil {
		devices = []model.Device{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlFile{Devices: devices}); err != nil {
		return err
	}
	return enc.Close()
}
