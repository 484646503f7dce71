package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CSVSource loads bar series from CSV files, one file per (symbol,
// granularity). Expected record format: timestamp,open,high,low,close,volume
// with an optional seventh amount column; timestamps may be Unix seconds,
// Unix milliseconds or common date formats.
type CSVSource struct {
	// Files maps symbol -> path. Lookup of an unmapped symbol fails with
	// ErrInstrumentNotFound.
	Files map[string]string

	// Granularity applies to every file in this source.
	Granularity Granularity
}

// NewCSVSource creates a CSV-backed bar source.
func NewCSVSource(granularity Granularity, files map[string]string) *CSVSource {
	return &CSVSource{
		Files:       files,
		Granularity: granularity,
	}
}

// GetBars implements BarSource.
func (c *CSVSource) GetBars(ctx context.Context, symbol string, start, end time.Time, granularity Granularity) (*Series, error) {
	if granularity != c.Granularity {
		return nil, fmt.Errorf("csv source holds %s bars, requested %s: %w", c.Granularity, granularity, ErrDataUnavailable)
	}
	path, ok := c.Files[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrInstrumentNotFound)
	}

	series, err := LoadCSV(path, symbol, granularity)
	if err != nil {
		return nil, err
	}
	return series.Slice(start, end)
}

// LoadCSV reads a full bar series from a CSV file.
func LoadCSV(path, symbol string, granularity Granularity) (*Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header if the first row is not numeric
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(header) > 1 {
		if _, err := strconv.ParseFloat(header[1], 64); err == nil {
			// First row is data, rewind
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
			reader = csv.NewReader(file)
			reader.FieldsPerRecord = -1
		}
	}

	bars := make([]Bar, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) < 6 {
			continue // skip invalid records
		}

		bar, err := parseCSVRecord(record)
		if err != nil {
			continue // skip invalid records
		}
		bars = append(bars, bar)
	}

	return NewSeries(symbol, granularity, bars)
}

func parseCSVRecord(record []string) (Bar, error) {
	timestamp, err := ParseTimestamp(record[0])
	if err != nil {
		return Bar{}, err
	}

	fields := make([]decimal.Decimal, 5)
	names := []string{"open", "high", "low", "close", "volume"}
	for i := range fields {
		fields[i], err = decimal.NewFromString(record[i+1])
		if err != nil {
			return Bar{}, fmt.Errorf("invalid %s: %w", names[i], err)
		}
	}

	bar := Bar{
		Timestamp: timestamp,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}
	if len(record) > 6 {
		if amount, err := decimal.NewFromString(record[6]); err == nil {
			bar.Amount = amount
		}
	}
	if bar.Amount.IsZero() {
		bar.Amount = bar.Close.Mul(bar.Volume)
	}
	return bar, nil
}

// ParseTimestamp parses a timestamp string: Unix seconds, Unix milliseconds,
// RFC3339 or common date layouts.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ts > 10000000000 {
			return time.Unix(ts/1000, (ts%1000)*1000000).UTC(), nil
		}
		return time.Unix(ts, 0).UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}
