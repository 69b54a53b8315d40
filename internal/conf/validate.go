// validate.go: validation of user provided settings
package conf

import (
	"fmt"
	"time"
)

// ValidateSettings validates the settings loaded from the configuration file.
// It collects all problems instead of stopping at the first one.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validateMainSettings(&settings.Main, &ve)
	validateOutputSettings(&settings.Output, &ve)
	validateWarehouseSettings(&settings.Warehouse, &ve)

	if len(ve.Errors) > 0 {
		return &ve
	}
	return nil
}

// ValidationError holds a list of validation error messages.
type ValidationError struct {
	Errors []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

func (ve *ValidationError) add(format string, args ...any) {
	ve.Errors = append(ve.Errors, fmt.Sprintf(format, args...))
}

func validateMainSettings(main *MainSettings, ve *ValidationError) {
	if main.Name == "" {
		ve.add("main.name is required")
	}
	if main.Log.Enabled {
		if main.Log.Path == "" {
			ve.add("main.log.path is required when main log is enabled")
		}
		switch main.Log.Rotation {
		case RotationDaily, RotationWeekly, RotationSize:
		default:
			ve.add("main.log.rotation must be daily, weekly or size, got %q", main.Log.Rotation)
		}
	}
}

func validateOutputSettings(output *OutputSettings, ve *ValidationError) {
	if !output.SQLite.Enabled && !output.MySQL.Enabled {
		ve.add("at least one output store must be enabled")
	}
	if output.SQLite.Enabled && output.SQLite.Path == "" {
		ve.add("output.sqlite.path is required when SQLite is enabled")
	}
	if output.MySQL.Enabled {
		if output.MySQL.Database == "" {
			ve.add("output.mysql.database is required when MySQL is enabled")
		}
		if output.MySQL.Host == "" {
			ve.add("output.mysql.host is required when MySQL is enabled")
		}
	}
}

func validateWarehouseSettings(wh *WarehouseSettings, ve *ValidationError) {
	if _, err := time.Parse("2006-01-02", wh.CalendarStart); err != nil {
		ve.add("warehouse.calendarstart must be a YYYY-MM-DD date, got %q", wh.CalendarStart)
	}
	if wh.FiscalYearStartMonth < 1 || wh.FiscalYearStartMonth > 12 {
		ve.add("warehouse.fiscalyearstartmonth must be between 1 and 12, got %d", wh.FiscalYearStartMonth)
	}
	if wh.ActivityMedium <= 0 || wh.ActivityHigh <= wh.ActivityMedium {
		ve.add("warehouse activity thresholds must satisfy 0 < medium < high, got medium=%d high=%d",
			wh.ActivityMedium, wh.ActivityHigh)
	}
	for name, ratio := range map[string]float64{
		"medicalratio": wh.MedicalRatio,
		"mediaratio":   wh.MediaRatio,
		"priceratio":   wh.PriceRatio,
	} {
		if ratio <= 0 || ratio >= 1 {
			ve.add("warehouse.%s must be between 0 and 1, got %g", name, ratio)
		}
	}
	if wh.MediumMessageChars <= 0 || wh.LongMessageChars <= wh.MediumMessageChars {
		ve.add("warehouse message length thresholds must satisfy 0 < medium < long, got medium=%d long=%d",
			wh.MediumMessageChars, wh.LongMessageChars)
	}
}
