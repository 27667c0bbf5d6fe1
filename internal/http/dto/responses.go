package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type SettingsResponse struct {
	NLPKeyConfigured bool `json:"nlp_key_configured"`
}

type StatsResponse struct {
	TotalRules       int `json:"total_rules"`
	ActiveRules      int `json:"active_rules"`
	PendingSchedules int `json:"pending_schedules"`
	LogEntries       int `json:"log_entries"`
}
