package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/netcensus/netcensus/pkg/model"
)

// ReadCSV parses a CSV inventory. The first record is a header naming the
// Name, User, Password and Parameter columns in any order and case; other
// columns are ignored.
func ReadCSV(r io.Reader) ([]model.Device, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.Device{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cols := make([]int, len(Columns))
	for i, c := range Columns {
		pos, ok := index[strings.ToLower(c)]
		if !ok {
			return nil, fmt.Errorf("CSV header: missing column %q", c)
		}
		cols[i] = pos
	}

	var devices []model.Device
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		field := func(i int) string {
			if cols[i] < len(rec) {
				return rec[cols[i]]
			}
			return ""
		}
		devices = append(devices, model.Device{
			Name:      field(0),
			User:      field(1),
			Password:  field(2),
			Parameter: field(3),
		})
	}
	return keep(devices), nil
}

// WriteCSV writes devices as a CSV inventory with a header row.
func WriteCSV(w io.Writer, devices []model.Device) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, d := range devices {
		if err := cw.Write([]string{d.Name, d.User, d.Password, d.Parameter}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
