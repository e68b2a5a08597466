package rules

import (
	"github.com/joshsymonds/appquality/internal/models"
)

// Bucket holds the entities a leaf rule sorted into compliant and non-compliant.
type Bucket struct {
	Compliant    []*models.Entity
	NonCompliant []*models.Entity
}

// Tally returns the bucket's counts.
func (b Bucket) Tally() Tally {
	return Tally{Compliant: len(b.Compliant), NonCompliant: len(b.NonCompliant)}
}

// ResultView is a read-only view of the leaf results recorded so far in a group.
type ResultView interface {
	// Names returns recorded rule names in evaluation order.
	Names() []string
	Bucket(name string) (Bucket, bool)
}

// Accumulator records leaf results for one group in evaluation order.
// A fresh accumulator is used per group.
type Accumulator struct {
	buckets map[string]Bucket
	names   []string
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{buckets: make(map[string]Bucket)}
}

// Record stores a leaf rule's bucket. Recording a name twice replaces the
// bucket but keeps its original position.
func (a *Accumulator) Record(name string, b Bucket) {
	if _, seen := a.buckets[name]; !seen {
		a.names = append(a.names, name)
	}
	a.buckets[name] = b
}

// View returns a read-only view of what has been recorded so far.
func (a *Accumulator) View() ResultView {
	buckets := make(map[string]Bucket, len(a.buckets))
	for name, b := range a.buckets {
		buckets[name] = b
	}
	return snapshot{names: append([]string(nil), a.names...), buckets: buckets}
}

// snapshot is detached from the accumulator: later Record calls stay invisible.
type snapshot struct {
	buckets map[string]Bucket
	names   []string
}

func (s snapshot) Names() []string {
	return append([]string(nil), s.names...)
}

func (s snapshot) Bucket(name string) (Bucket, bool) {
	b, ok := s.buckets[name]
	return b, ok
}
