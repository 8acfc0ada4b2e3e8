package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"forecaster/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarsCSVRoundTrip(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	bars := []domain.Bar{
		{Time: time.Date(2026, 8, 28, 9, 0, 0, 0, jst), Open: 1000, High: 1005.5, Low: 998.25, Close: 1002, Volume: 12000},
		{Time: time.Date(2026, 8, 28, 9, 5, 0, 0, jst), Open: 1002, High: 1008, Low: 1001, Close: 1007, Volume: 9000},
	}
	path := filepath.Join(t.TempDir(), "bars.csv")

	require.NoError(t, WriteBarsToCSV(bars, path))
	got, err := ReadBarsFromCSV(path)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, bars[0].Time.Equal(got[0].Time))
	assert.Equal(t, bars[0].High, got[0].High)
	assert.Equal(t, bars[1].Volume, got[1].Volume)
}

func TestReadBarsFromCSV_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n"), 0644))

	_, err := ReadBarsFromCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected header")
}

func TestReadBarsFromCSV_BadRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := "time,open,high,low,close,volume\n2026-08-28T09:00:00+09:00,not-a-number,1,1,1,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := ReadBarsFromCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDailyBarsCSVRoundTrip(t *testing.T) {
	daily := []domain.DailyBar{
		{Date: "2026-08-27", Open: 995, Close: 1001},
		{Date: "2026-08-28", Open: 1003, Close: 1010},
	}
	path := filepath.Join(t.TempDir(), "daily.csv")

	require.NoError(t, WriteDailyBarsToCSV(daily, path))
	got, err := ReadDailyBarsFromCSV(path)
	require.NoError(t, err)
	assert.Equal(t, daily, got)
}
