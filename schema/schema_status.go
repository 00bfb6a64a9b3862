package schema

import "time"

// RunSummary describes a completed pipeline run.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	InputPath    string        `json:"input_path"`
	Accounts     int           `json:"accounts"`
	Rows         int           `json:"rows"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	RegionCount  int           `json:"region_groups"`
	CountryCount int           `json:"country_groups"`
}

// ExportStatus represents the status of the SQL export target.
type ExportStatus struct {
	Backend    string           `json:"backend"`
	Connected  bool             `json:"connected"`
	LastRunID  string           `json:"last_run_id"`
	TableSizes map[string]int64 `json:"table_sizes"`
}
