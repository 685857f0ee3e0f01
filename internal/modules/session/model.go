// README: Partner session snapshot persisted on the device.
package session

import (
	"time"

	"courier/internal/types"
)

const storageKeyPrefix = "partner-storage"

// Snapshot is the persisted partner record. Dashboard numbers are a cache of
// the last values shown and are refreshed from the ledger when available.
type Snapshot struct {
	Online          bool        `json:"isOnline"`
	TodayEarnings   types.Money `json:"todayEarnings"`
	CompletedOrders int         `json:"completedOrders"`
	SavedAt         time.Time   `json:"savedAt"`
}

func StorageKey(partnerID types.ID) string {
	return storageKeyPrefix + ":" + string(partnerID)
}
