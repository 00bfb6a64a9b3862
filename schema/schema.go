// Package schema has configs, models and global variables for all parts of riskboard.
package schema

import "time"

// AccountRecord is one account from the input export.
// It is owned by the loader and treated as immutable after parsing.
type AccountRecord struct {
	ID           string         // Unique account identifier
	Risk         float64        // Account risk score in [0, 1]
	DevicesCount int            // Value of devices_count as reported by the export
	Country      string         // last_location.location.country, empty when absent
	Region       string         // last_location.location.region, empty when absent
	Devices      []DeviceRecord // Devices in export order
}

// DeviceRecord is a device nested under an account. It has no identity of its own.
type DeviceRecord struct {
	CreatedAt time.Time   // Creation instant as parsed from the export
	Risk      float64     // Device risk score
	State     DeviceState // approved or unapproved
}

// FlatRow is one (account, device) pair with the account fields repeated.
type FlatRow struct {
	AccountID       string      `json:"account_id"`
	AccountRisk     float64     `json:"account_risk"`
	DeviceCreatedAt time.Time   `json:"device_created_at"` // Calendar date, time-of-day discarded
	DeviceRisk      float64     `json:"device_risk"`
	DeviceState     DeviceState `json:"device_state"`
	DeviceCount     int         `json:"device_count"`
	Country         string      `json:"country"`
	Region          string      `json:"region"`
}

// DerivedRow is a FlatRow with its risk category assigned.
type DerivedRow struct {
	FlatRow
	RiskCategory RiskCategory `json:"risk_category"`
}
