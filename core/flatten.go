package core

import (
	"sort"

	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/schema"
)

// accountScalars holds the parent fields repeated on every row of an account.
type accountScalars struct {
	ID           string
	Risk         float64
	DevicesCount int
	Country      string
	Region       string
}

// deviceLeaf is one exploded device carrying the key of the account it came from.
type deviceLeaf struct {
	ParentID string
	Device   schema.DeviceRecord
}

// FlattenAccounts explodes every account's devices into one FlatRow per device
// and joins each row back to its account on id. Accounts without devices
// produce no rows. Rows come back sorted by date descending.
func FlattenAccounts(accounts []schema.AccountRecord) ([]schema.FlatRow, error) {
	parents, err := indexAccounts(accounts)
	if err != nil {
		return nil, err
	}
	leaves := explodeDevices(accounts)
	rows, err := joinDevices(parents, leaves)
	if err != nil {
		return nil, err
	}
	sortByDateDesc(rows)
	return rows, nil
}

// indexAccounts builds the id lookup used by the join. Ids must be unique.
func indexAccounts(accounts []schema.AccountRecord) (map[string]accountScalars, error) {
	index := make(map[string]accountScalars, len(accounts))
	for _, a := range accounts {
		if _, dup := index[a.ID]; dup {
			return nil, &schema.JoinIntegrityError{AccountID: a.ID, Reason: "duplicate account id"}
		}
		index[a.ID] = accountScalars{
			ID:           a.ID,
			Risk:         a.Risk,
			DevicesCount: a.DevicesCount,
			Country:      NormalizeCountry(a.Country),
			Region:       a.Region,
		}
	}
	return index, nil
}

// explodeDevices lists every device with its parent key, in input order.
func explodeDevices(accounts []schema.AccountRecord) []deviceLeaf {
	total := 0
	for _, a := range accounts {
		total += len(a.Devices)
	}
	leaves := make([]deviceLeaf, 0, total)
	for _, a := range accounts {
		for _, d := range a.Devices {
			leaves = append(leaves, deviceLeaf{ParentID: a.ID, Device: d})
		}
	}
	return leaves
}

// joinDevices inner-joins device leaves to their parent scalars.
func joinDevices(parents map[string]accountScalars, leaves []deviceLeaf) ([]schema.FlatRow, error) {
	rows := make([]schema.FlatRow, 0, len(leaves))
	for _, leaf := range leaves {
		parent, ok := parents[leaf.ParentID]
		if !ok {
			return nil, &schema.JoinIntegrityError{AccountID: leaf.ParentID, Reason: "device references an unknown account"}
		}
		rows = append(rows, schema.FlatRow{
			AccountID:       parent.ID,
			AccountRisk:     parent.Risk,
			DeviceCreatedAt: contract.TruncateToDate(leaf.Device.CreatedAt),
			DeviceRisk:      leaf.Device.Risk,
			DeviceState:     leaf.Device.State,
			DeviceCount:     parent.DevicesCount,
			Country:         parent.Country,
			Region:          parent.Region,
		})
	}
	return rows, nil
}

// sortByDateDesc orders rows newest date first. Equal dates keep input order.
func sortByDateDesc(rows []schema.FlatRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DeviceCreatedAt.After(rows[j].DeviceCreatedAt)
	})
}
