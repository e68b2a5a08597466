package database

import "time"

// Run is one saved report run.
type Run struct {
	GeneratedAt time.Time
	ID          string
	Source      string
	Groups      int
	Rows        int
}

// RowRecord is one saved report row. Drill-down links are not kept.
type RowRecord struct {
	RunID        string
	RowID        string
	Group        string
	Rule         string
	GroupHandle  int
	Position     int
	Compliant    int
	NonCompliant int
	Percentage   int
	Overall      bool
}

// RunFilter narrows ListRuns. Zero values apply no restriction.
type RunFilter struct {
	Since  time.Time
	Limit  int
	Offset int
}

// TrendPoint is a rule's result for one group in one run.
type TrendPoint struct {
	GeneratedAt  time.Time
	RunID        string
	Compliant    int
	NonCompliant int
	Percentage   int
}
