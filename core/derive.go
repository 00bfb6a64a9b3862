package core

import (
	"math"
	"strconv"

	"github.com/huangsam/riskboard/schema"
)

// Categorize maps an account risk in [0, 1] to its risk category.
// Risks outside that range, and NaN, are rejected rather than clamped.
func Categorize(risk float64) (schema.RiskCategory, error) {
	if math.IsNaN(risk) || risk < 0 || risk > 1 {
		return "", &schema.CategoryOutOfRangeError{
			Field:   "account_risk",
			Value:   strconv.FormatFloat(risk, 'g', -1, 64),
			Allowed: []string{"[0, 1]"},
		}
	}
	switch {
	case risk <= schema.SafeCeiling:
		return schema.SafeCategory, nil
	case risk < schema.MaliciousFloor:
		return schema.SuspiciousCategory, nil
	default:
		return schema.MaliciousCategory, nil
	}
}

// DeriveRows assigns a risk category to every row.
func DeriveRows(rows []schema.FlatRow) ([]schema.DerivedRow, error) {
	derived := make([]schema.DerivedRow, len(rows))
	for i, r := range rows {
		category, err := Categorize(r.AccountRisk)
		if err != nil {
			return nil, err
		}
		derived[i] = schema.DerivedRow{FlatRow: r, RiskCategory: category}
	}
	return derived, nil
}

// NormalizeCountry applies the display alias for a country name, if it has one.
func NormalizeCountry(country string) string {
	if alias, ok := schema.CountryAliases[country]; ok {
		return alias
	}
	return country
}
