package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		valid    bool
	}{
		{"daily at 20:00", "0 20 * * *", true},
		{"every 6 hours", "0 */6 * * *", true},
		{"weekdays at 9:30", "30 9 * * 1-5", true},
		{"every minute", "* * * * *", true},
		{"complex fields", "15,45 */2 * * 1,3,5", true},
		{"empty", "", false},
		{"too few fields", "0 0", false},
		{"too many fields", "0 0 * * * * *", false},
		{"minute out of range", "60 0 * * *", false},
		{"hour out of range", "0 24 * * *", false},
		{"random text", "invalid format", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid cron schedule")
			}
		})
	}
}

func TestValidateCronSchedule_ErrorIncludesValue(t *testing.T) {
	err := ValidateCronSchedule("invalid")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule 'invalid'")
}

func TestValidateTimezone(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		valid    bool
	}{
		{"UTC", "UTC", true},
		{"New York", "America/New_York", true},
		{"Tokyo", "Asia/Tokyo", true},
		{"Local", "Local", true},
		{"empty", "", false},
		{"unknown zone", "Invalid/Timezone", false},
		{"offset instead of name", "+09:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimezone(tt.timezone)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid timezone")
			}
		})
	}
}

func TestValidateDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		min      time.Duration
		max      time.Duration
		wantErr  string
	}{
		{"exactly min", 10 * time.Second, 10 * time.Second, time.Minute, ""},
		{"exactly max", time.Minute, 10 * time.Second, time.Minute, ""},
		{"middle of range", 30 * time.Second, 10 * time.Second, time.Minute, ""},
		{"min equals max", 5 * time.Second, 5 * time.Second, 5 * time.Second, ""},
		{"zero within range", 0, 0, 10 * time.Second, ""},
		{"below min", 5 * time.Second, 10 * time.Second, time.Minute, "below minimum"},
		{"above max", 2 * time.Minute, 10 * time.Second, time.Minute, "exceeds maximum"},
		{"min greater than max", 30 * time.Second, time.Minute, 10 * time.Second, "invalid range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDuration(tt.duration, tt.min, tt.max)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateIntRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		min     int
		max     int
		wantErr string
	}{
		{"exactly min", 1, 1, 10, ""},
		{"exactly max", 10, 1, 10, ""},
		{"middle of range", 5, 1, 10, ""},
		{"negative range", -5, -10, -1, ""},
		{"below min", 0, 1, 10, "below minimum"},
		{"above max", 11, 1, 10, "exceeds maximum"},
		{"min greater than max", 5, 10, 1, "invalid range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIntRange(tt.value, tt.min, tt.max)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidatePositiveDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		valid    bool
	}{
		{"one nanosecond", time.Nanosecond, true},
		{"fifteen minutes", 15 * time.Minute, true},
		{"zero", 0, false},
		{"negative", -time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveDuration(tt.duration)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "must be positive")
			}
		})
	}
}

func TestValidatePositiveInt(t *testing.T) {
	tests := []struct {
		name  string
		value int
		valid bool
	}{
		{"positive", 25, true},
		{"one", 1, true},
		{"zero", 0, false},
		{"negative", -10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveInt(tt.value)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "must be positive")
			}
		})
	}
}
