package domain

import "time"

// Slot resolution defaults
const (
	DefaultGranularity     = 30 * time.Minute
	MinSlotUnits           = 2 // minimum duration in granularity units
	MaxSlotDurationMinutes = 720
)

// Checkout defaults
const (
	DefaultAbandonmentTimeout = 15 * time.Minute
	DefaultCurrency           = "RUB"
)

// Business validation constants
const (
	MaxNoteLength     = 500
	MaxLineItems      = 20
	MaxItemQuantity   = 50
	MaxRoleQuantity   = 10
	MaxAdminBlockDays = 31
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
