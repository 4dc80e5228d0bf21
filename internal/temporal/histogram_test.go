package temporal

import (
	"fmt"
	"testing"
	"time"

	"visiongraph/pkg/models"
)

func at(t time.Time) *models.Detection {
	return &models.Detection{EventTime: t, Fields: map[string]interface{}{}}
}

func TestDailyBucketsGroupsAndSorts(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	dets := []*models.Detection{
		at(base.AddDate(0, 0, 2)),
		at(base),
		at(base.Add(3 * time.Hour)),
		at(base.AddDate(0, 0, 1)),
	}

	buckets, invalid := DailyBuckets(dets, time.UTC)
	if invalid != 0 {
		t.Fatalf("expected no invalid records, got %d", invalid)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Date != "2026-03-10" || buckets[0].Count != 2 {
		t.Fatalf("unexpected first bucket: %+v", buckets[0])
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i-1].Date >= buckets[i].Date {
			t.Fatalf("buckets are not ascending: %+v", buckets)
		}
	}
}

func TestDailyBucketsDropsInvalidTimes(t *testing.T) {
	dets := []*models.Detection{
		at(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		{Fields: map[string]interface{}{"eventTime": "not-a-date"}},
		nil,
	}

	buckets, invalid := DailyBuckets(dets, time.UTC)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if invalid != 2 {
		t.Fatalf("expected 2 dropped records, got %d", invalid)
	}
}

func TestDailyBucketsKeepsMostRecentThirty(t *testing.T) {
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	var dets []*models.Detection
	for i := 0; i < 45; i++ {
		dets = append(dets, at(base.AddDate(0, 0, i)))
	}

	buckets, _ := DailyBuckets(dets, time.UTC)
	if len(buckets) != MaxBuckets {
		t.Fatalf("expected %d buckets, got %d", MaxBuckets, len(buckets))
	}
	wantFirst := base.AddDate(0, 0, 15).Format("2006-01-02")
	if buckets[0].Date != wantFirst {
		t.Fatalf("expected oldest retained bucket %s, got %s", wantFirst, buckets[0].Date)
	}
	wantLast := base.AddDate(0, 0, 44).Format("2006-01-02")
	if buckets[len(buckets)-1].Date != wantLast {
		t.Fatalf("expected newest bucket %s, got %s", wantLast, buckets[len(buckets)-1].Date)
	}
}

func TestDailyBucketsEmptyInput(t *testing.T) {
	buckets, invalid := DailyBuckets(nil, time.UTC)
	if len(buckets) != 0 || invalid != 0 {
		t.Fatalf("expected empty result, got %v %d", buckets, invalid)
	}
}

func TestDailyBucketsLocationAware(t *testing.T) {
	loc := time.FixedZone("plus9", 9*3600)
	// 23:00 UTC on the 10th is already the 11th at +09:00.
	dets := []*models.Detection{at(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))}

	buckets, _ := DailyBuckets(dets, loc)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if buckets[0].Date != "2026-03-11" {
		t.Fatalf("expected local-zone date 2026-03-11, got %s", buckets[0].Date)
	}
}

func TestDailyBucketsManyDaysStress(t *testing.T) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var dets []*models.Detection
	for day := 0; day < 10; day++ {
		for n := 0; n <= day; n++ {
			dets = append(dets, at(base.AddDate(0, 0, day)))
		}
	}

	buckets, _ := DailyBuckets(dets, time.UTC)
	if len(buckets) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(buckets))
	}
	for i, b := range buckets {
		if b.Count != i+1 {
			t.Fatalf("bucket %s: expected count %d, got %d", b.Date, i+1, b.Count)
		}
		want := fmt.Sprintf("2026-02-%02d", i+1)
		if b.Date != want {
			t.Fatalf("expected date %s, got %s", want, b.Date)
		}
	}
}
