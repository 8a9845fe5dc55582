package domain

import "time"

// HealthChange is the ledger's report for one deduction.
type HealthChange struct {
	Applied bool
	Before  int
	After   int
	Band    string
}

// GrantRecord is the timeline entry a grant produces.
type GrantRecord struct {
	At           time.Time
	AppName      string
	HealthBefore int
	HealthAfter  int
}
