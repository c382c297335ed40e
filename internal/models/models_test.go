package models

import (
	"encoding/json"
	"testing"
)

func TestColumnsCoverEveryField(t *testing.T) {
	if len(Columns) != 24 {
		t.Fatalf("columns = %d, want 24", len(Columns))
	}

	rec := AssetRecord{}
	for i, col := range Columns {
		want := "value-" + col
		rec.Set(col, want)
		if got := rec.Get(col); got != want {
			t.Errorf("Get(%q) = %q after Set, want %q", col, got, want)
		}
		if got := rec.Values()[i]; got != want {
			t.Errorf("Values()[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestGetUnknownColumn(t *testing.T) {
	rec := AssetRecord{AssetTag: "A-1"}
	if got := rec.Get("No Such Column"); got != "" {
		t.Errorf("Get of unknown column = %q, want empty", got)
	}
	// Set of an unknown column is a no-op
	rec.Set("No Such Column", "x")
	if rec.AssetTag != "A-1" {
		t.Error("Set of unknown column mutated the record")
	}
}

// JSON keys are the display names so exported files match what providers
// produce and what the importer of an export expects.
func TestJSONKeysAreDisplayNames(t *testing.T) {
	rec := AssetRecord{AssetTag: "A-1", RAMGB: "16", ComputerName: "PC-1"}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, col := range Columns {
		if _, ok := m[col]; !ok {
			t.Errorf("marshalled record missing key %q", col)
		}
	}
	if m[ColRAMGB] != "16" {
		t.Errorf("%q = %q, want 16", ColRAMGB, m[ColRAMGB])
	}

	var back AssetRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != rec {
		t.Errorf("round trip mismatch: %+v != %+v", back, rec)
	}
}
