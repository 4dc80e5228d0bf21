// Package temporal groups detections into per-day buckets for the density
// display.
package temporal

import (
	"sort"
	"time"

	"visiongraph/pkg/models"
)

// MaxBuckets bounds how many trailing days the density display shows.
const MaxBuckets = 30

// DayBucket is one (date, count) histogram entry. Date is formatted
// 2006-01-02 in the grouping location.
type DayBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DailyBuckets groups detections by calendar day in loc, ascending by date,
// keeping only the most recent MaxBuckets days. Records without a valid
// event time are dropped and counted in the second return value so callers
// can surface a data-quality warning.
func DailyBuckets(dets []*models.Detection, loc *time.Location) ([]DayBucket, int) {
	if loc == nil {
		loc = time.Local
	}

	counts := make(map[string]int, 64)
	invalid := 0
	for _, d := range dets {
		if d == nil || d.EventTime.IsZero() {
			invalid++
			continue
		}
		day := d.EventTime.In(loc).Format("2006-01-02")
		counts[day]++
	}

	buckets := make([]DayBucket, 0, len(counts))
	for day, count := range counts {
		buckets = append(buckets, DayBucket{Date: day, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })

	if len(buckets) > MaxBuckets {
		buckets = buckets[len(buckets)-MaxBuckets:]
	}
	return buckets, invalid
}
