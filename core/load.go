package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
)

// accountWire mirrors the export's account object. Pointers distinguish a missing
// key from a zero value.
type accountWire struct {
	ID           json.RawMessage   `json:"id"`
	Risk         *float64          `json:"risk"`
	DevicesCount *int              `json:"devices_count"`
	Devices      *[]deviceWire     `json:"devices"`
	LastLocation *lastLocationWire `json:"last_location"`
}

type lastLocationWire struct {
	Location *locationWire `json:"location"`
}

type locationWire struct {
	Country *string `json:"country"`
	Region  *string `json:"region"`
}

type deviceWire struct {
	CreatedAt *string  `json:"created_at"`
	Risk      *float64 `json:"risk"`
	State     *string  `json:"state"`
}

// containerKeys are the members tried, in order, when the top level is an object.
var containerKeys = []string{"accounts", "users", "data", "items"}

// LoadAccounts reads the export at path and parses every account in it.
func LoadAccounts(path string) ([]schema.AccountRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &schema.IOError{Path: path, Err: err}
	}
	return ParseAccounts(path, data)
}

// ParseAccounts parses an export held in memory. The path is only used for errors.
func ParseAccounts(path string, data []byte) ([]schema.AccountRecord, error) {
	elems, err := topLevelAccounts(path, data)
	if err != nil {
		return nil, err
	}

	accounts := make([]schema.AccountRecord, 0, len(elems))
	for i, raw := range elems {
		prefix := fmt.Sprintf("[%d]", i)
		var wire accountWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, &schema.ParseError{Path: path, Field: fieldOf(prefix, err), Err: err}
		}
		account, err := convertAccount(path, prefix, wire)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// topLevelAccounts returns the raw account objects from either a bare array or an
// object that carries one.
func topLevelAccounts(path string, data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &schema.ParseError{Path: path, Err: errors.New("empty document")}
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, &schema.ParseError{Path: path, Err: err}
		}
		return elems, nil
	case '{':
		var members map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &members); err != nil {
			return nil, &schema.ParseError{Path: path, Err: err}
		}
		return accountsFromObject(path, members)
	default:
		var probe any
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, &schema.ParseError{Path: path, Err: err}
		}
		return nil, &schema.ParseError{Path: path, Err: errors.New("top level must be an array of accounts or an object holding one")}
	}
}

// accountsFromObject picks the account array out of a wrapping object.
func accountsFromObject(path string, members map[string]json.RawMessage) ([]json.RawMessage, error) {
	for _, key := range containerKeys {
		if raw, ok := members[key]; ok {
			var elems []json.RawMessage
			if err := json.Unmarshal(raw, &elems); err != nil {
				return nil, &schema.ParseError{Path: path, Field: key, Err: err}
			}
			return elems, nil
		}
	}

	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var found []string
	var elems []json.RawMessage
	for _, k := range keys {
		var candidate []json.RawMessage
		if err := json.Unmarshal(members[k], &candidate); err == nil {
			found = append(found, k)
			elems = candidate
		}
	}
	switch len(found) {
	case 1:
		return elems, nil
	case 0:
		return nil, &schema.ParseError{Path: path, Err: errors.New("object holds no array of accounts")}
	default:
		return nil, &schema.ParseError{Path: path, Err: fmt.Errorf("ambiguous account array, candidates: %v", found)}
	}
}

// convertAccount checks the required keys of one account and converts it.
func convertAccount(path, prefix string, wire accountWire) (schema.AccountRecord, error) {
	missing := func(field string) error {
		return &schema.ParseError{Path: path, Field: prefix + "." + field, Err: errors.New("required field is missing")}
	}

	id, err := decodeID(wire.ID)
	if err != nil {
		if len(wire.ID) == 0 {
			return schema.AccountRecord{}, missing("id")
		}
		return schema.AccountRecord{}, &schema.ParseError{Path: path, Field: prefix + ".id", Err: err}
	}
	if wire.Risk == nil {
		return schema.AccountRecord{}, missing("risk")
	}
	if wire.DevicesCount == nil {
		return schema.AccountRecord{}, missing("devices_count")
	}
	if wire.Devices == nil {
		return schema.AccountRecord{}, missing("devices")
	}

	account := schema.AccountRecord{
		ID:           id,
		Risk:         *wire.Risk,
		DevicesCount: *wire.DevicesCount,
		Devices:      make([]schema.DeviceRecord, 0, len(*wire.Devices)),
	}
	if loc := wire.LastLocation; loc != nil && loc.Location != nil {
		if loc.Location.Country != nil {
			account.Country = *loc.Location.Country
		}
		if loc.Location.Region != nil {
			account.Region = *loc.Location.Region
		}
	}

	for j, d := range *wire.Devices {
		devicePrefix := fmt.Sprintf("devices[%d]", j)
		if d.CreatedAt == nil {
			return schema.AccountRecord{}, missing(devicePrefix + ".created_at")
		}
		if d.Risk == nil {
			return schema.AccountRecord{}, missing(devicePrefix + ".risk")
		}
		if d.State == nil {
			return schema.AccountRecord{}, missing(devicePrefix + ".state")
		}
		createdAt, err := contract.ParseTimestamp(*d.CreatedAt)
		if err != nil {
			return schema.AccountRecord{}, &schema.ParseError{Path: path, Field: prefix + "." + devicePrefix + ".created_at", Err: err}
		}
		account.Devices = append(account.Devices, schema.DeviceRecord{
			CreatedAt: createdAt,
			Risk:      *d.Risk,
			State:     schema.DeviceState(*d.State),
		})
	}
	return account, nil
}

// decodeID accepts a string or numeric account id.
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("required field is missing")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errors.New("id must not be empty")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}
	return "", fmt.Errorf("id must be a string or number, got %s", string(raw))
}

// fieldOf builds a JSON path for a decoding error when the decoder reports one.
func fieldOf(prefix string, err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return prefix + "." + typeErr.Field
	}
	return prefix
}
