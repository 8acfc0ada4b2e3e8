package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"forecaster/internal/domain"
)

// WriteBarsToCSV writes intraday bars to a CSV file with a header row.
// Timestamps are written in RFC3339 so the zone offset round-trips.
func WriteBarsToCSV(bars []domain.Bar, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"time", "open", "high", "low", "close", "volume"})
	for _, b := range bars {
		writer.Write([]string{
			b.Time.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadBarsFromCSV reads bars written by WriteBarsToCSV. A header row is
// required; rows with the wrong column count or unparseable values fail the
// whole read rather than being silently dropped.
func ReadBarsFromCSV(filename string) ([]domain.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filename, err)
	}
	if len(header) != 6 || header[0] != "time" {
		return nil, fmt.Errorf("unexpected header in %s: %v", filename, header)
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", filename, line, err)
		}
		bar, err := parseBarRecord(record)
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", filename, line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBarRecord(record []string) (domain.Bar, error) {
	if len(record) != 6 {
		return domain.Bar{}, fmt.Errorf("expected 6 columns, got %d", len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return domain.Bar{}, fmt.Errorf("time: %w", err)
	}
	vals := make([]float64, 5)
	for i, name := range []string{"open", "high", "low", "close", "volume"} {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("%s: %w", name, err)
		}
		vals[i] = v
	}
	return domain.Bar{Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}, nil
}

// WriteDailyBarsToCSV writes daily bars (date, open, close) to a CSV file.
func WriteDailyBarsToCSV(daily []domain.DailyBar, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"date", "open", "close"})
	for _, d := range daily {
		writer.Write([]string{
			d.Date,
			strconv.FormatFloat(d.Open, 'f', -1, 64),
			strconv.FormatFloat(d.Close, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadDailyBarsFromCSV reads daily bars written by WriteDailyBarsToCSV.
func ReadDailyBarsFromCSV(filename string) ([]domain.DailyBar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filename, err)
	}
	if len(header) != 3 || header[0] != "date" {
		return nil, fmt.Errorf("unexpected header in %s: %v", filename, header)
	}

	var daily []domain.DailyBar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", filename, line, err)
		}
		if len(record) != 3 {
			return nil, fmt.Errorf("parse %s line %d: expected 3 columns, got %d", filename, line, len(record))
		}
		open, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d open: %w", filename, line, err)
		}
		closePrice, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d close: %w", filename, line, err)
		}
		daily = append(daily, domain.DailyBar{Date: record[0], Open: open, Close: closePrice})
	}
	return daily, nil
}
