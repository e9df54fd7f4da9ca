package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeString
		wantErr bool
	}{
		{name: "plain", input: "09:30", want: "09:30"},
		{name: "with seconds", input: "17:00:00", want: "17:00"},
		{name: "end of day", input: "24:00", want: "24:00"},
		{name: "garbage", input: "9h", wantErr: true},
		{name: "out of range", input: "25:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddMinutes(t *testing.T) {
	got, err := TimeString("23:30").AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("24:00"), got)

	_, err = TimeString("23:30").AddMinutes(31)
	assert.Error(t, err)

	got, err = TimeString("09:00").AddMinutes(90)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:30"), got)
}

func TestCompare(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("09:30"))
	assert.False(t, TimeString("09:30").IsBefore("09:30"))
	assert.True(t, TimeString("24:00").IsAfter("23:59"))
}

func TestOn(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	got, err := TimeString("14:15").On(day, loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 10, 14, 15, 0, 0, loc), got)
	assert.Equal(t, 11, got.UTC().Hour())
}

func TestScan(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.Scan([]byte("08:00:00")))
	assert.Equal(t, TimeString("08:00"), ts)

	require.NoError(t, ts.Scan("24:00:00"))
	assert.Equal(t, TimeString("24:00"), ts)

	v, err := TimeString("10:45").Value()
	require.NoError(t, err)
	assert.Equal(t, "10:45:00", v)
}
