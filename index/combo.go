package index

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"secindex/client"
)

// QuarterPeriod designates one quarter lookup in a range plan. A nil
// Predicate means the whole quarter is in range; boundary quarters
// carry a predicate restricting entries to the requested dates.
type QuarterPeriod struct {
	Year      int
	Quarter   int
	Predicate EntryFilter
}

// ComboFilings retrieves all filings between two dates. The range is
// partitioned into whole-quarter lookups and day-by-day lookups: spans
// longer than the balancing point are served by the quarterly index
// (with a date predicate on boundary quarters), shorter leftovers by
// the daily index.
type ComboFilings struct {
	c              *client.Client
	startDate      time.Time
	endDate        time.Time
	filter         EntryFilter
	balancingPoint int
	log            logrus.FieldLogger

	quarters []QuarterPeriod
	days     []time.Time
}

// ComboOption allows for customization of a ComboFilings.
type ComboOption func(*ComboFilings)

// WithEntryFilter keeps only entries the filter accepts, across every
// quarter and day lookup.
func WithEntryFilter(filter EntryFilter) ComboOption {
	return func(cf *ComboFilings) {
		cf.filter = filter
	}
}

// WithBalancingPoint sets the day-count threshold above which a
// boundary partial quarter is resolved through the quarterly index
// instead of day-by-day lookups.
func WithBalancingPoint(days int) ComboOption {
	return func(cf *ComboFilings) {
		cf.balancingPoint = days
	}
}

// WithComboLogger sets the logger used for skipped periods.
func WithComboLogger(log logrus.FieldLogger) ComboOption {
	return func(cf *ComboFilings) {
		cf.log = log
	}
}

// NewComboFilings plans retrieval of all filings between startDate and
// endDate inclusive.
func NewComboFilings(c *client.Client, startDate, endDate time.Time, options ...ComboOption) (*ComboFilings, error) {
	if c == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, fmt.Errorf("start and end dates must not be zero")
	}
	startDate, endDate = midnight(startDate), midnight(endDate)
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("start date %s is after end date %s",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}

	cf := &ComboFilings{
		c:              c,
		startDate:      startDate,
		endDate:        endDate,
		balancingPoint: 30,
		log:            logrus.StandardLogger(),
	}
	for _, option := range options {
		option(cf)
	}
	if cf.balancingPoint <= 0 {
		return nil, fmt.Errorf("balancing point must be positive, got %d", cf.balancingPoint)
	}

	cf.recompute()
	return cf, nil
}

// recompute derives the quarter and day schedule from the range. The
// union of the emitted periods tiles [startDate, endDate] exactly:
// every date in range is covered by one day entry or by one quarter
// whose predicate accepts it.
func (cf *ComboFilings) recompute() {
	cf.quarters = nil
	cf.days = nil

	current := cf.startDate
	for !current.After(cf.endDate) {
		boundary := nextQuarterStart(current)
		daysTillBoundary := daysBetween(current, boundary)
		daysTillEnd := daysBetween(current, cf.endDate)

		if daysTillBoundary <= daysTillEnd {
			switch {
			case quarterStart(current).Equal(current):
				cf.quarters = append(cf.quarters, QuarterPeriod{
					Year:    current.Year(),
					Quarter: Quarter(current),
				})
				current = boundary
			case daysTillBoundary > cf.balancingPoint:
				start := cf.startDate
				cf.quarters = append(cf.quarters, QuarterPeriod{
					Year:    current.Year(),
					Quarter: Quarter(current),
					Predicate: func(e FilingEntry) bool {
						return !e.DateFiled.Before(start)
					},
				})
				current = boundary
			default:
				for current.Before(boundary) {
					cf.days = append(cf.days, current)
					current = current.AddDate(0, 0, 1)
				}
			}
			continue
		}

		if daysTillEnd > cf.balancingPoint {
			period := QuarterPeriod{
				Year:    current.Year(),
				Quarter: Quarter(current),
			}
			// A boundary one day past the range end means the quarter
			// is fully covered and needs no predicate.
			if daysTillBoundary-1 != daysTillEnd {
				end := cf.endDate
				period.Predicate = func(e FilingEntry) bool {
					return !e.DateFiled.After(end)
				}
			}
			cf.quarters = append(cf.quarters, period)
			return
		}

		for !current.After(cf.endDate) {
			cf.days = append(cf.days, current)
			current = current.AddDate(0, 0, 1)
		}
	}
}

// StartDate returns the inclusive range start.
func (cf *ComboFilings) StartDate() time.Time { return cf.startDate }

// EndDate returns the inclusive range end.
func (cf *ComboFilings) EndDate() time.Time { return cf.endDate }

// BalancingPoint returns the configured quarter/day threshold.
func (cf *ComboFilings) BalancingPoint() int { return cf.balancingPoint }

// Quarters returns the planned quarter lookups in chronological order.
func (cf *ComboFilings) Quarters() []QuarterPeriod {
	out := make([]QuarterPeriod, len(cf.quarters))
	copy(out, cf.quarters)
	return out
}

// Days returns the planned day lookups in chronological order.
func (cf *ComboFilings) Days() []time.Time {
	out := make([]time.Time, len(cf.days))
	copy(out, cf.days)
	return out
}

// GetURLs returns the filing URLs for every period in range, merged
// into one mapping keyed by CIK. Days without filings are skipped.
func (cf *ComboFilings) GetURLs(ctx context.Context) (map[string][]string, error) {
	merged := make(map[string][]string)

	for _, period := range cf.quarters {
		quarterly, err := NewQuarterlyIndex(cf.c, period.Year, period.Quarter,
			combineFilters(period.Predicate, cf.filter))
		if err != nil {
			return nil, err
		}
		urls, err := quarterly.GetURLs(ctx)
		if err != nil {
			return nil, err
		}
		mergeURLs(merged, urls)
	}

	for _, day := range cf.days {
		daily, err := NewDailyIndex(cf.c, day, cf.filter)
		if err != nil {
			return nil, err
		}
		urls, found, err := daily.urlsIfFound(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			cf.log.WithField("date", day.Format("2006-01-02")).Debug("no filings for day")
			continue
		}
		mergeURLs(merged, urls)
	}
	return merged, nil
}

// Save downloads every filing in range into the layout described by
// opts. Days without filings are skipped; quarters without an index
// file fail with ErrNoFilings since a planned quarter should exist.
func (cf *ComboFilings) Save(ctx context.Context, opts SaveOptions) error {
	for _, period := range cf.quarters {
		quarterly, err := NewQuarterlyIndex(cf.c, period.Year, period.Quarter,
			combineFilters(period.Predicate, cf.filter))
		if err != nil {
			return err
		}
		if err := quarterly.Save(ctx, opts); err != nil {
			return err
		}
	}

	for _, day := range cf.days {
		daily, err := NewDailyIndex(cf.c, day, cf.filter)
		if err != nil {
			return err
		}
		if _, found, err := daily.Filings(ctx); err != nil {
			return err
		} else if !found {
			cf.log.WithField("date", day.Format("2006-01-02")).Debug("no filings for day")
			continue
		}
		if err := daily.Save(ctx, opts); err != nil {
			return err
		}
	}
	return nil
}

func mergeURLs(dst, src map[string][]string) {
	for cik, links := range src {
		dst[cik] = append(dst[cik], links...)
	}
}
