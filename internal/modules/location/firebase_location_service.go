// README: Firebase RTDB sink publishing the courier's live position for customer tracking.
package location

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/db"

	"courier/internal/types"
)

const rtdbLocationsNode = "driver_locations"

// rtdbCourierEntry mirrors the entry stored under /driver_locations/<id>.
type rtdbCourierEntry struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Status    string  `json:"status"`
	Simulated bool    `json:"simulated"`
	Timestamp int64   `json:"timestamp"`
}

type FirebaseSink struct {
	dbClient  *db.Client
	partnerID types.ID
	status    func() string
}

// NewFirebaseSink writes positions for partnerID. status reports the value of
// the entry's status field ("online"/"offline"); nil means "online".
func NewFirebaseSink(dbClient *db.Client, partnerID types.ID, status func() string) *FirebaseSink {
	return &FirebaseSink{dbClient: dbClient, partnerID: partnerID, status: status}
}

func (s *FirebaseSink) Name() string { return "firebase" }

func (s *FirebaseSink) Push(ctx context.Context, pos Position) error {
	status := "online"
	if s.status != nil {
		status = s.status()
	}
	entry := rtdbCourierEntry{
		Lat:       pos.Lat,
		Lng:       pos.Lng,
		Status:    status,
		Simulated: pos.Simulated,
		Timestamp: pos.UpdatedAt.UnixMilli(),
	}
	ref := s.dbClient.NewRef(rtdbLocationsNode + "/" + string(s.partnerID))
	if err := ref.Set(ctx, entry); err != nil {
		return fmt.Errorf("writing %s/%s: %w", rtdbLocationsNode, s.partnerID, err)
	}
	return nil
}
