package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSettings returns a settings struct that passes validation, for tests to mutate.
func validSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "medlake"
	s.Main.Log.Enabled = true
	s.Main.Log.Path = "medlake.log"
	s.Main.Log.Rotation = RotationDaily
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "medlake.db"
	s.Warehouse = WarehouseSettings{
		CalendarStart:        "2024-01-01",
		FiscalYearStartMonth: 7,
		ActivityHigh:         100,
		ActivityMedium:       50,
		MedicalRatio:         0.7,
		MediaRatio:           0.5,
		PriceRatio:           0.3,
		LongMessageChars:     100,
		MediumMessageChars:   50,
	}
	return s
}

func TestValidateSettingsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{
			name:   "missing name",
			mutate: func(s *Settings) { s.Main.Name = "" },
			want:   "main.name is required",
		},
		{
			name:   "bad rotation",
			mutate: func(s *Settings) { s.Main.Log.Rotation = "hourly" },
			want:   "main.log.rotation",
		},
		{
			name: "no store enabled",
			mutate: func(s *Settings) {
				s.Output.SQLite.Enabled = false
				s.Output.MySQL.Enabled = false
			},
			want: "at least one output store",
		},
		{
			name:   "bad calendar start",
			mutate: func(s *Settings) { s.Warehouse.CalendarStart = "01/01/2024" },
			want:   "warehouse.calendarstart",
		},
		{
			name:   "fiscal month out of range",
			mutate: func(s *Settings) { s.Warehouse.FiscalYearStartMonth = 13 },
			want:   "fiscalyearstartmonth",
		},
		{
			name: "activity thresholds inverted",
			mutate: func(s *Settings) {
				s.Warehouse.ActivityHigh = 10
				s.Warehouse.ActivityMedium = 50
			},
			want: "activity thresholds",
		},
		{
			name:   "ratio out of range",
			mutate: func(s *Settings) { s.Warehouse.MedicalRatio = 1.5 },
			want:   "warehouse.medicalratio",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidationErrorCollectsAllProblems(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Main.Name = ""
	s.Warehouse.FiscalYearStartMonth = 0

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}
