package fcsfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/fluogo/tttr"
)

// ErrMalformed is returned when a file does not follow the expected layout.
var ErrMalformed = errors.New("fcsfile: malformed file")

const (
	formatVersion = "3.0"
	timeColumn    = "Time (ms)"
	endMarker     = "end"
)

// Header holds the metadata rows of a correlation file.
type Header struct {
	ParentName  string
	ChannelType string
	// KCount, NumberNandB and BrightnessNandB are counting statistics of the
	// source trace. Fitting software only displays them.
	KCount          float64
	NumberNandB     float64
	BrightnessNandB float64
	CarpetPos       int
	PC              int
	// Column names the value column.
	Column string
}

// DefaultHeader returns the header of a single-channel autocorrelation.
func DefaultHeader(parent string) Header {
	return Header{
		ParentName:      parent,
		ChannelType:     "1_1",
		KCount:          1,
		NumberNandB:     1,
		BrightnessNandB: 1,
		Column:          "CH1 Auto-Correlation",
	}
}

// FileName returns the conventional name of a correlation file:
// <date>_<method>_<text>_<idx>_correlation.csv. Dots in text are spelled
// "dot" so the name keeps a single extension.
func FileName(date time.Time, method, text string, idx int) string {
	return fmt.Sprintf("%s_%s_%s_%04d_correlation.csv",
		date.Format(time.DateOnly), method, strings.ReplaceAll(text, ".", "dot"), idx)
}

// WriteCorrelation writes c with header h.
func WriteCorrelation(w io.Writer, h Header, c *tttr.Curve) error {
	if c == nil || len(c.Lags) != len(c.G) {
		return fmt.Errorf("%w: curve lags and values differ in length", ErrMalformed)
	}
	if h.ChannelType == "" {
		h.ChannelType = "1_1"
	}
	if h.Column == "" {
		h.Column = "CH1 Auto-Correlation"
	}

	cw := csv.NewWriter(w)
	rows := [][]string{
		{"version", formatVersion},
		{"numOfCh", "1"},
		{"type", "point"},
		{"parent_name", h.ParentName},
		{"ch_type", h.ChannelType},
		{"kcount", formatFloat(h.KCount)},
		{"numberNandB", formatFloat(h.NumberNandB)},
		{"brightnessNandB", formatFloat(h.BrightnessNandB)},
		{"carpet pos", strconv.Itoa(h.CarpetPos)},
		{"pc", strconv.Itoa(h.PC)},
		{timeColumn, h.Column},
	}
	for i := range c.Lags {
		rows = append(rows, []string{formatFloat(c.Lags[i]), formatFloat(c.G[i])})
	}
	rows = append(rows, []string{endMarker})

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("fcsfile: write correlation: %w", err)
	}
	return nil
}

// ReadCorrelation parses a file written by WriteCorrelation.
func ReadCorrelation(r io.Reader) (Header, *tttr.Curve, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var h Header
	c := &tttr.Curve{}
	inData, done := false, false

	for !done {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Header{}, nil, fmt.Errorf("fcsfile: read correlation: %w", err)
		}

		if inData {
			if len(rec) == 1 && rec[0] == endMarker {
				done = true
				continue
			}
			if len(rec) != 2 {
				return Header{}, nil, fmt.Errorf("%w: data row %v", ErrMalformed, rec)
			}
			lag, err := strconv.ParseFloat(rec[0], 64)
			if err != nil {
				return Header{}, nil, fmt.Errorf("%w: lag %q", ErrMalformed, rec[0])
			}
			g, err := strconv.ParseFloat(rec[1], 64)
			if err != nil {
				return Header{}, nil, fmt.Errorf("%w: value %q", ErrMalformed, rec[1])
			}
			c.Lags = append(c.Lags, lag)
			c.G = append(c.G, g)
			continue
		}

		if len(rec) != 2 {
			return Header{}, nil, fmt.Errorf("%w: header row %v", ErrMalformed, rec)
		}
		if err := h.set(rec[0], rec[1]); err != nil {
			return Header{}, nil, err
		}
		if rec[0] == timeColumn {
			inData = true
		}
	}

	if !done {
		return Header{}, nil, fmt.Errorf("%w: missing %q row", ErrMalformed, endMarker)
	}
	return h, c, nil
}

func (h *Header) set(key, value string) error {
	var err error
	switch key {
	case "version":
		if value != formatVersion {
			return fmt.Errorf("%w: unsupported version %q", ErrMalformed, value)
		}
	case "numOfCh", "type":
	case "parent_name":
		h.ParentName = value
	case "ch_type":
		h.ChannelType = value
	case "kcount":
		h.KCount, err = strconv.ParseFloat(value, 64)
	case "numberNandB":
		h.NumberNandB, err = strconv.ParseFloat(value, 64)
	case "brightnessNandB":
		h.BrightnessNandB, err = strconv.ParseFloat(value, 64)
	case "carpet pos":
		h.CarpetPos, err = strconv.Atoi(value)
	case "pc":
		h.PC, err = strconv.Atoi(value)
	case timeColumn:
		h.Column = value
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
