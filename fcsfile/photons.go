package fcsfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/fluogo/tttr"
)

// ReadPhotons parses a time,channel CSV. A non-numeric first row is taken
// as the column header and skipped.
func ReadPhotons(r io.Reader) (tttr.Photons, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	var p tttr.Photons
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return tttr.Photons{}, fmt.Errorf("fcsfile: read photons: %w", err)
		}

		t, terr := strconv.ParseFloat(rec[0], 64)
		if terr != nil && line == 1 {
			continue
		}
		if terr != nil {
			return tttr.Photons{}, fmt.Errorf("%w: line %d: time %q", ErrMalformed, line, rec[0])
		}
		ch, err := strconv.ParseUint(rec[1], 10, 8)
		if err != nil {
			return tttr.Photons{}, fmt.Errorf("%w: line %d: channel %q", ErrMalformed, line, rec[1])
		}

		p.Times = append(p.Times, t)
		p.Channels = append(p.Channels, uint8(ch))
	}
	return p, nil
}

// WritePhotons writes p as a time,channel CSV with header.
func WritePhotons(w io.Writer, p tttr.Photons) error {
	if len(p.Times) != len(p.Channels) {
		return fmt.Errorf("%w: %d times, %d channels", tttr.ErrLengthMismatch, len(p.Times), len(p.Channels))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "channel"}); err != nil {
		return err
	}
	rec := make([]string, 2)
	for i, t := range p.Times {
		rec[0] = formatFloat(t)
		rec[1] = strconv.FormatUint(uint64(p.Channels[i]), 10)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
