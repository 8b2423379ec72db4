// Package stats tracks per-class detection counts for one logical session
// and derives percentage distributions from them.
package stats

import "sync"

// Aggregator maintains per-class running totals behind a mutex. The label
// set is fixed at construction; labels outside it are silently ignored.
type Aggregator struct {
	labels []string
	counts map[string]int
	mu     sync.Mutex
}

func NewAggregator(labels []string) *Aggregator {
	counts := make(map[string]int, len(labels))
	for _, label := range labels {
		counts[label] = 0
	}
	return &Aggregator{
		labels: append([]string(nil), labels...),
		counts: counts,
	}
}

// Record increments the count for label. Unknown labels are ignored.
func (a *Aggregator) Record(label string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.counts[label]; ok {
		a.counts[label]++
	}
}

// Snapshot returns a consistent copy of label -> percentage. Percentages
// are count/total*100, or 0 for every label when the total is zero.
func (a *Aggregator) Snapshot() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.percentagesLocked()
}

// Counts returns a copy of the raw per-label counts.
func (a *Aggregator) Counts() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts := make(map[string]int, len(a.counts))
	for label, count := range a.counts {
		counts[label] = count
	}
	return counts
}

// Total returns the sum of all counts.
func (a *Aggregator) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalLocked()
}

// Reset zeroes all counts.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for label := range a.counts {
		a.counts[label] = 0
	}
}

// Drain computes the final percentage distribution and zeroes the live
// counts in one atomic step. Used when a video finishes so that a
// concurrent poll never observes the final total mixed with reset counts.
func (a *Aggregator) Drain() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	percentages := a.percentagesLocked()
	for label := range a.counts {
		a.counts[label] = 0
	}
	return percentages
}

// Labels returns the fixed label set.
func (a *Aggregator) Labels() []string {
	return append([]string(nil), a.labels...)
}

func (a *Aggregator) totalLocked() int {
	total := 0
	for _, count := range a.counts {
		total += count
	}
	return total
}

func (a *Aggregator) percentagesLocked() map[string]float64 {
	total := a.totalLocked()
	percentages := make(map[string]float64, len(a.counts))
	for label, count := range a.counts {
		if total > 0 {
			percentages[label] = float64(count) / float64(total) * 100
		} else {
			percentages[label] = 0
		}
	}
	return percentages
}

// ZeroPercentages returns an all-zero distribution over labels.
func ZeroPercentages(labels []string) map[string]float64 {
	percentages := make(map[string]float64, len(labels))
	for _, label := range labels {
		percentages[label] = 0
	}
	return percentages
}
