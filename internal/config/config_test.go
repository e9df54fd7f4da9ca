package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
[database]
user = "reservations"
password = "secret"
dbname = "reservations"

[payment_gateway]
base_url = "http://gateway:8090"
api_key = "key"

[claim_token]
key = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
`

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(write(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Minute, cfg.Reservation.Granularity())
	assert.Equal(t, 15*time.Minute, cfg.Reservation.AbandonAfter())
	assert.Equal(t, "RUB", cfg.Reservation.Currency)
	assert.Equal(t, 100, cfg.Sweeper.BatchSize)
	assert.Equal(t,
		"host=localhost port=5432 user=reservations password=secret dbname=reservations sslmode=disable",
		cfg.Database.DSN())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(write(t, minimal+`
[reservation]
granularity_minutes = 15
abandon_after_minutes = 20
min_booking_notice_minutes = 60
currency = "EUR"

[kafka]
enabled = true
brokers = ["kafka-1:9092", "kafka-2:9092"]
`))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Reservation.Granularity())
	assert.Equal(t, 60, cfg.Reservation.MinBookingNoticeMinutes)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "reservation-events", cfg.Kafka.Topic)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing gateway", `
[database]
user = "u"
dbname = "d"
[claim_token]
key = "k"
`},
		{"granularity not dividing a day", minimal + `
[reservation]
granularity_minutes = 7
`},
		{"unknown key", minimal + `
[server]
http_prot = 80
`},
		{"kafka without brokers", minimal + `
[kafka]
enabled = true
`},
		{"bad currency", minimal + `
[reservation]
currency = "RUBL"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
