package domain

import "fmt"

// Reason says why the host asked for an evaluation. It is logged, never decided on.
type Reason string

const (
	ReasonForeground Reason = "foreground"
	ReasonPeriodic   Reason = "periodic"
	ReasonRequest    Reason = "request"
	ReasonGrant      Reason = "grant"
)

func ParseReason(raw string) (Reason, error) {
	switch r := Reason(raw); r {
	case ReasonForeground, ReasonPeriodic, ReasonRequest, ReasonGrant:
		return r, nil
	case "":
		return ReasonRequest, nil
	default:
		return "", fmt.Errorf("unknown evaluation reason %q", raw)
	}
}
