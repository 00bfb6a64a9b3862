// Package agg has aggregation logic for derived device rows.
package agg

import (
	"time"

	"github.com/huangsam/riskboard/schema"
)

// StringField names a categorical column of a derived row and reads it.
type StringField struct {
	Name string
	Get  func(schema.DerivedRow) string
}

// FloatField names a numeric column of a derived row and reads it.
type FloatField struct {
	Name string
	Get  func(schema.DerivedRow) float64
}

// DateField names a date column of a derived row and reads it.
type DateField struct {
	Name string
	Get  func(schema.DerivedRow) time.Time
}

// Columns of schema.DerivedRow used by the pipeline.
var (
	CreatedDateField = DateField{
		Name: "device_created_at",
		Get:  func(r schema.DerivedRow) time.Time { return r.DeviceCreatedAt },
	}
	DeviceStateField = StringField{
		Name: "device_state",
		Get:  func(r schema.DerivedRow) string { return string(r.DeviceState) },
	}
	RiskCategoryField = StringField{
		Name: "risk_category",
		Get:  func(r schema.DerivedRow) string { return string(r.RiskCategory) },
	}
	CountryField = StringField{
		Name: "country",
		Get:  func(r schema.DerivedRow) string { return r.Country },
	}
	RegionField = StringField{
		Name: "region",
		Get:  func(r schema.DerivedRow) string { return r.Region },
	}
	AccountRiskField = FloatField{
		Name: "account_risk",
		Get:  func(r schema.DerivedRow) float64 { return r.AccountRisk },
	}
)

// InCountry returns a row predicate keeping rows located in the given country.
func InCountry(country string) func(schema.DerivedRow) bool {
	return func(r schema.DerivedRow) bool { return r.Country == country }
}
