package dto

import "time"

type InitializeInput struct {
	AppIDs []string
}

type InitializeOutput struct {
	Changed   bool
	AppCount  int
	Aggregate int
}

type DeductInput struct {
	AppID  string
	Amount float64
}

type DeductOutput struct {
	Applied      bool
	HealthBefore int
	HealthAfter  int
	Band         string
}

type AppOutput struct {
	AppID           string
	CurrentHP       float64
	MaxHP           float64
	LastDeductionAt *time.Time
}

type StatusOutput struct {
	Aggregate int
	Band      string
	ResetDay  string
	Apps      []AppOutput
}
