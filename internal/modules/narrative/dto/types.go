package dto

type EvaluateInput struct {
	Reason string
}

type EvaluateOutput struct {
	Fired    bool   `json:"fired"`
	Trigger  string `json:"trigger,omitempty"`
	Band     string `json:"band,omitempty"`
	Health   int    `json:"health"`
	Message  string `json:"message,omitempty"`
	Emoji    string `json:"emoji,omitempty"`
	Source   string `json:"source,omitempty"`
	EventID  string `json:"eventId,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

type InterceptOutput struct {
	Band            string   `json:"band"`
	Health          int      `json:"health"`
	AllowedMinutes  []int    `json:"allowedMinutes"`
	AllowedLabels   []string `json:"allowedLabels"`
	Redirect        string   `json:"redirect"`
	PainAcknowledge string   `json:"pain"`
}

type FlagOutput struct {
	Scope   string `json:"scope"`
	Trigger string `json:"trigger"`
	FiredAt string `json:"firedAt"`
}

type WriterCheckOutput struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Sample     string   `json:"sample"`
	Violations []string `json:"violations,omitempty"`
}

type SettingsInput struct {
	DailyLimitMinutes    int
	NightlyHour          int
	NightlyMinute        int
	NightlyWindowMinutes int
	HistoryWindow        int
	WriterAttempts       int
}
