// calendar.go: generates the date dimension spine
package dimension

import (
	"fmt"
	"time"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/errors"
	"github.com/yosefw/medlake-go/internal/logging"
	"github.com/yosefw/medlake-go/internal/observability"
)

const dateLayout = "2006-01-02"

// CalendarGenerator recomputes the date dimension table.
type CalendarGenerator struct {
	store    datastore.Interface
	settings *conf.Settings
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewCalendarGenerator creates a CalendarGenerator. metrics may be nil.
func NewCalendarGenerator(store datastore.Interface, settings *conf.Settings, metrics *observability.Metrics) *CalendarGenerator {
	return &CalendarGenerator{
		store:    store,
		settings: settings,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Rebuild regenerates the calendar from the configured start date through one
// year past today and swaps the table in one transaction. The relative flags
// are computed against today and go stale between runs; GeneratedAsOf records
// the reference date so staleness is visible to consumers.
func (g *CalendarGenerator) Rebuild() (int, error) {
	start, err := time.Parse(dateLayout, g.settings.Warehouse.CalendarStart)
	if err != nil {
		return 0, errors.New(fmt.Errorf("parsing calendar start date: %w", err)).
			Component("dimension").
			Category(errors.CategoryConfiguration).
			Context("calendar_start", g.settings.Warehouse.CalendarStart).
			Build()
	}

	passStart := time.Now()
	asOf := g.now()
	days := GenerateCalendar(start, asOf, g.settings.Warehouse.FiscalYearStartMonth)

	if err := g.store.ReplaceCalendarDays(days); err != nil {
		return 0, errors.New(fmt.Errorf("replacing calendar days: %w", err)).
			Component("dimension").
			Category(errors.CategoryDatabase).
			Build()
	}

	g.metrics.RecordTableRows("calendar_days", len(days))
	g.metrics.RecordPassDuration("calendar_dimension", time.Since(passStart).Seconds())
	log := logging.ForService("dimension")
	if len(days) > 0 {
		log.Info("Calendar dimension rebuilt",
			"days", len(days),
			"from", days[0].Date,
			"through", days[len(days)-1].Date)
	} else {
		log.Warn("Calendar dimension rebuilt empty, start date is beyond the horizon",
			"calendar_start", g.settings.Warehouse.CalendarStart)
	}
	return len(days), nil
}

// GenerateCalendar produces one row per date from start through one year past
// asOf, with no gaps. Pure function of its arguments.
func GenerateCalendar(start, asOf time.Time, fiscalStartMonth int) []datastore.CalendarDay {
	start = truncateToDay(start)
	asOf = truncateToDay(asOf)
	end := asOf.AddDate(1, 0, 0)

	var days []datastore.CalendarDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, buildDay(d, asOf, fiscalStartMonth))
	}
	return days
}

func buildDay(d, asOf time.Time, fiscalStartMonth int) datastore.CalendarDay {
	year, month, day := d.Date()
	_, isoWeek := d.ISOWeek()
	weekday := isoWeekday(d.Weekday())
	isWeekend := weekday >= 6
	nextDay := d.AddDate(0, 0, 1)
	isMonthEnd := nextDay.Month() != d.Month()

	fiscalYear, fiscalQuarter := fiscalPosition(year, int(month), fiscalStartMonth)

	row := datastore.CalendarDay{
		Date:      d.Format(dateLayout),
		Year:      year,
		Month:     int(month),
		Day:       day,
		DayOfWeek: weekday,
		DayOfYear: d.YearDay(),
		ISOWeek:   isoWeek,
		Quarter:   (int(month)-1)/3 + 1,
		MonthName: d.Month().String(),
		DayName:   d.Weekday().String(),

		FiscalYear:    fiscalYear,
		FiscalQuarter: fiscalQuarter,

		IsWeekend:     isWeekend,
		IsBusinessDay: !isWeekend,
		IsMonthEnd:    isMonthEnd,
		IsQuarterEnd:  isMonthEnd && int(month)%3 == 0,
		IsYearEnd:     month == time.December && day == 31,
		Season:        conf.SeasonByMonth[int(month)],

		GeneratedAsOf: asOf,
	}

	ageDays := int(asOf.Sub(d).Hours() / 24)
	row.IsCurrentDate = ageDays == 0
	row.IsYesterday = ageDays == 1
	row.IsTomorrow = ageDays == -1
	row.IsLast7Days = ageDays >= 0 && ageDays < 7
	row.IsLast30Days = ageDays >= 0 && ageDays < 30
	row.IsLast90Days = ageDays >= 0 && ageDays < 90
	row.IsLastYear = year == asOf.Year()-1

	return row
}

// fiscalPosition maps a calendar year/month onto the fiscal year and quarter.
// The fiscal year is named for the calendar year it starts in.
func fiscalPosition(year, month, fiscalStartMonth int) (fiscalYear, fiscalQuarter int) {
	offset := month - fiscalStartMonth
	if offset < 0 {
		offset += 12
		fiscalYear = year - 1
	} else {
		fiscalYear = year
	}
	return fiscalYear, offset/3 + 1
}

// isoWeekday maps Go's Sunday-based weekday onto ISO numbering, Monday=1.
func isoWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
