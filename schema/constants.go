package schema

// Custom string types for type safety.
type (
	// RiskCategory is the three-valued classification of an account risk score.
	RiskCategory string

	// DeviceState is the approval outcome recorded for a device.
	DeviceState string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the SQL export.
	DatabaseBackend string

	// DatasetName identifies one of the four datasets a run produces.
	DatasetName string
)

// All risk categories, in presentation order.
const (
	SafeCategory       RiskCategory = "safe"
	SuspiciousCategory RiskCategory = "suspicious"
	MaliciousCategory  RiskCategory = "malicious"
)

// All device states.
const (
	ApprovedState   DeviceState = "approved"
	UnapprovedState DeviceState = "unapproved"
)

// Risk thresholds. A risk at or below SafeCeiling is safe, at or above
// MaliciousFloor is malicious, and anything between is suspicious.
const (
	SafeCeiling    = 0.6
	MaliciousFloor = 0.9
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All export backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All datasets produced by a run.
const (
	StateCountsDataset DatasetName = "ts_state"
	RiskCountsDataset  DatasetName = "ts_risk"
	RegionRiskDataset  DatasetName = "usregion_risk"
	CountryRiskDataset DatasetName = "country_risk"
)

// Values used by the field deriver and the group aggregations.
const (
	DefaultMinSupport   = 3
	DefaultFocusCountry = "United States"
)

// CountryAliases maps verbose country names to their display alias.
var CountryAliases = map[string]string{
	"United Arab Emirates": "UAE",
}

// StateOrder is the fixed column order of the state count matrix.
var StateOrder = []string{string(UnapprovedState), string(ApprovedState)}

// RiskOrder is the fixed column order of the risk count matrix.
var RiskOrder = []string{string(SafeCategory), string(SuspiciousCategory), string(MaliciousCategory)}

// AllDatasets lists every dataset in the order sinks receive them.
var AllDatasets = []DatasetName{StateCountsDataset, RiskCountsDataset, RegionRiskDataset, CountryRiskDataset}

// DatasetTitles holds the human-readable chart title of each dataset.
var DatasetTitles = map[DatasetName]string{
	StateCountsDataset: "Daily Count By Outcome",
	RiskCountsDataset:  "Daily Count By Risk Level",
	RegionRiskDataset:  "Average Risk By State",
	CountryRiskDataset: "Average Risk By Country",
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid export backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
