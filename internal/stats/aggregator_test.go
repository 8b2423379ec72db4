package stats

import (
	"math"
	"sync"
	"testing"
)

var testLabels = []string{"Ripe", "Unripe", "Rotten"}

func TestSnapshot_ZeroTotal(t *testing.T) {
	agg := NewAggregator(testLabels)

	snapshot := agg.Snapshot()
	if len(snapshot) != len(testLabels) {
		t.Fatalf("Expected %d labels, got %d", len(testLabels), len(snapshot))
	}
	for label, pct := range snapshot {
		if pct != 0 {
			t.Errorf("Expected 0%% for %s with no records, got %f", label, pct)
		}
	}
}

func TestSnapshot_PercentagesSumTo100(t *testing.T) {
	tests := []struct {
		name    string
		records map[string]int
	}{
		{"single label", map[string]int{"Ripe": 5}},
		{"even split", map[string]int{"Ripe": 10, "Unripe": 10}},
		{"uneven split", map[string]int{"Ripe": 1, "Unripe": 2, "Rotten": 4}},
		{"large counts", map[string]int{"Ripe": 3333, "Unripe": 6667}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(testLabels)
			for label, n := range tt.records {
				for i := 0; i < n; i++ {
					agg.Record(label)
				}
			}

			sum := 0.0
			for _, pct := range agg.Snapshot() {
				sum += pct
			}
			if math.Abs(sum-100) > 1e-9 {
				t.Errorf("Expected percentages to sum to 100, got %f", sum)
			}
		})
	}
}

func TestRecord_UnknownLabelIgnored(t *testing.T) {
	agg := NewAggregator(testLabels)
	agg.Record("Unknown Class")
	agg.Record("Ripe")

	counts := agg.Counts()
	if counts["Ripe"] != 1 {
		t.Errorf("Expected Ripe count 1, got %d", counts["Ripe"])
	}
	if _, ok := counts["Unknown Class"]; ok {
		t.Error("Unknown label should not appear in counts")
	}
	if agg.Total() != 1 {
		t.Errorf("Expected total 1, got %d", agg.Total())
	}
}

func TestReset_ZeroesUntilNextRecord(t *testing.T) {
	agg := NewAggregator(testLabels)
	agg.Record("Ripe")
	agg.Record("Unripe")

	agg.Reset()

	for i := 0; i < 3; i++ {
		for label, pct := range agg.Snapshot() {
			if pct != 0 {
				t.Fatalf("Expected 0%% for %s after reset, got %f", label, pct)
			}
		}
	}

	agg.Record("Ripe")
	if agg.Snapshot()["Ripe"] != 100 {
		t.Errorf("Expected 100%% Ripe after single record, got %f", agg.Snapshot()["Ripe"])
	}
}

func TestDrain_ReturnsFinalAndResets(t *testing.T) {
	agg := NewAggregator(testLabels)
	agg.Record("Ripe")
	agg.Record("Ripe")
	agg.Record("Rotten")
	agg.Record("Rotten")

	final := agg.Drain()
	if final["Ripe"] != 50 || final["Rotten"] != 50 {
		t.Errorf("Expected 50/50 split, got %v", final)
	}

	if agg.Total() != 0 {
		t.Errorf("Expected zero total after drain, got %d", agg.Total())
	}
}

func TestRecord_ConcurrentWithSnapshot(t *testing.T) {
	agg := NewAggregator(testLabels)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				agg.Record("Ripe")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			agg.Snapshot()
		}
	}()
	wg.Wait()

	if agg.Total() != 1000 {
		t.Errorf("Expected 1000 records, got %d", agg.Total())
	}
}

func TestZeroPercentages(t *testing.T) {
	zeros := ZeroPercentages(testLabels)
	if len(zeros) != len(testLabels) {
		t.Fatalf("Expected %d labels, got %d", len(testLabels), len(zeros))
	}
	for label, pct := range zeros {
		if pct != 0 {
			t.Errorf("Expected 0 for %s, got %f", label, pct)
		}
	}
}
