package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/riskboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneAccount = `{"id": "A", "risk": 0.5, "devices_count": 1,
  "last_location": {"location": {"country": "United States", "region": "Ohio"}},
  "devices": [{"created_at": "2021-03-01T10:00:00Z", "risk": 0.1, "state": "approved"}]}`

func TestParseAccountsTopLevelShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bare array", "[" + oneAccount + "]"},
		{"accounts key", `{"accounts": [` + oneAccount + `]}`},
		{"users key", `{"users": [` + oneAccount + `], "meta": {"count": 1}}`},
		{"single unknown array", `{"rows": [` + oneAccount + `], "total": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts, err := ParseAccounts("mem.json", []byte(tt.doc))
			require.NoError(t, err)
			require.Len(t, accounts, 1)

			a := accounts[0]
			assert.Equal(t, "A", a.ID)
			assert.Equal(t, 0.5, a.Risk)
			assert.Equal(t, 1, a.DevicesCount)
			assert.Equal(t, "United States", a.Country)
			assert.Equal(t, "Ohio", a.Region)
			require.Len(t, a.Devices, 1)
			assert.Equal(t, time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC), a.Devices[0].CreatedAt)
			assert.Equal(t, schema.ApprovedState, a.Devices[0].State)
		})
	}
}

func TestParseAccountsNumericIDAndMissingLocation(t *testing.T) {
	doc := `[{"id": 42, "risk": 0.3, "devices_count": 0, "devices": []}]`
	accounts, err := ParseAccounts("mem.json", []byte(doc))
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "42", accounts[0].ID)
	assert.Empty(t, accounts[0].Country)
	assert.Empty(t, accounts[0].Region)
	assert.Empty(t, accounts[0].Devices)
}

func TestParseAccountsErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"missing risk", `[{"id": "A", "devices_count": 0, "devices": []}]`, "[0].risk"},
		{"missing id", `[{"risk": 0.1, "devices_count": 0, "devices": []}]`, "[0].id"},
		{"missing devices", `[{"id": "A", "risk": 0.1, "devices_count": 0}]`, "[0].devices"},
		{"missing device state", `[{"id": "A", "risk": 0.1, "devices_count": 1,
			"devices": [{"created_at": "2021-03-01", "risk": 0.1}]}]`, "[0].devices[0].state"},
		{"bad timestamp", `[{"id": "A", "risk": 0.1, "devices_count": 1,
			"devices": [{"created_at": "yesterday", "risk": 0.1, "state": "approved"}]}]`, "[0].devices[0].created_at"},
		{"malformed json", `[{"id": "A"`, ""},
		{"scalar top level", `42`, ""},
		{"empty document", `   `, ""},
		{"ambiguous object", `{"a": [], "b": []}`, ""},
		{"object without array", `{"a": 1}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccounts("mem.json", []byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, schema.ErrParse))

			var parseErr *schema.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, "mem.json", parseErr.Path)
			if tt.field != "" {
				assert.Equal(t, tt.field, parseErr.Field)
			}
		})
	}
}

func TestLoadAccounts(t *testing.T) {
	t.Run("fixture", func(t *testing.T) {
		accounts, err := LoadAccounts(filepath.Join("testdata", "accounts_basic.json"))
		require.NoError(t, err)
		require.Len(t, accounts, 6)
		assert.Equal(t, "4", accounts[3].ID)
		assert.Len(t, accounts[3].Devices, 3)
		assert.Empty(t, accounts[5].Devices)
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent.json")
		_, err := LoadAccounts(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, schema.ErrIO))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}
