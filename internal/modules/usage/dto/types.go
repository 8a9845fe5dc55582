package dto

import "time"

type GrantInput struct {
	AppID   string
	AppName string
	// Amount is the HP to deduct.
	Amount float64
	// Minutes of usage granted.
	Minutes int
}

type GrantOutput struct {
	Applied      bool   `json:"applied"`
	HealthBefore int    `json:"healthBefore"`
	HealthAfter  int    `json:"healthAfter"`
	Band         string `json:"band"`
	EventID      string `json:"eventId,omitempty"`
}

type CountersOutput struct {
	Day               string     `json:"day"`
	CumulativeSeconds int64      `json:"cumulativeSeconds"`
	FirstGrantAt      *time.Time `json:"firstGrantAt,omitempty"`
	LastGrantAt       *time.Time `json:"lastGrantAt,omitempty"`
	GrantCount        int        `json:"grantCount"`
}
