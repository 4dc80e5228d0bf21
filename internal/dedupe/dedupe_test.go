package dedupe

import (
	"reflect"
	"testing"

	"visiongraph/pkg/models"
)

func det(fields map[string]interface{}) *models.Detection {
	return &models.Detection{Fields: fields}
}

func TestByKeyKeepsFirstOccurrenceInOrder(t *testing.T) {
	dets := []*models.Detection{
		det(map[string]interface{}{"processName": "svc.exe", "n": 1}),
		det(map[string]interface{}{"processName": "a.exe", "n": 2}),
		det(map[string]interface{}{"processName": "svc.exe", "n": 3}),
		det(map[string]interface{}{"processName": "b.exe", "n": 4}),
		det(map[string]interface{}{"processName": "c.exe", "n": 5}),
	}

	got := ByKey(dets, "processName", 10)
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %d", len(got))
	}
	wantOrder := []string{"1", "2", "4", "5"}
	for i, d := range got {
		if d.Field("n") != wantOrder[i] {
			t.Fatalf("position %d: expected record %s, got %s", i, wantOrder[i], d.Field("n"))
		}
	}
}

func TestByKeyIdempotent(t *testing.T) {
	dets := []*models.Detection{
		det(map[string]interface{}{"processName": "a"}),
		det(map[string]interface{}{"processName": "b"}),
		det(map[string]interface{}{"processName": "a"}),
	}

	once := ByKey(dets, "processName", 0)
	twice := ByKey(once, "processName", 0)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedup is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestByKeyLimit(t *testing.T) {
	var dets []*models.Detection
	for _, name := range []string{"a", "b", "c", "d"} {
		dets = append(dets, det(map[string]interface{}{"processName": name}))
	}

	got := ByKey(dets, "processName", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Field("processName") != "a" || got[1].Field("processName") != "b" {
		t.Fatalf("limit must keep the earliest records: %+v", got)
	}
}

func TestByKeyEmptyKeysShareOneBucket(t *testing.T) {
	dets := []*models.Detection{
		det(map[string]interface{}{"n": 1}),
		det(map[string]interface{}{"n": 2}),
		det(map[string]interface{}{"processName": "a", "n": 3}),
	}

	got := ByKey(dets, "processName", 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 records (one keyless survivor), got %d", len(got))
	}
	if got[0].Field("n") != "1" {
		t.Fatalf("expected the first keyless record to survive, got %s", got[0].Field("n"))
	}
}

func TestByKeyDefaultFallbackChain(t *testing.T) {
	dets := []*models.Detection{
		det(map[string]interface{}{"processName": "x.exe"}),
		det(map[string]interface{}{"processFilePath": `C:\x.exe`}),
		det(map[string]interface{}{"processName": "x.exe", "processFilePath": `C:\y.exe`}),
	}

	got := ByKey(dets, "", 0)
	// Records 1 and 3 resolve to "x.exe" via processName; record 2 falls
	// back to processFilePath.
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}

func TestByKeyDoesNotMutateInput(t *testing.T) {
	dets := []*models.Detection{
		det(map[string]interface{}{"processName": "a"}),
		det(map[string]interface{}{"processName": "a"}),
	}

	_ = ByKey(dets, "processName", 0)
	if len(dets) != 2 {
		t.Fatalf("input slice was mutated")
	}
}
