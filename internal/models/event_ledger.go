package models

import (
	"time"
)

// EventLedgerEntry is one append-only reservation row. The unique index on
// event_key makes the first insert the single claimant of the business event;
// existence of a row is the sole source of truth for "already handled".
type EventLedgerEntry struct {
	Base      `bson:",inline"`
	EventKey  string                 `bson:"event_key" json:"event_key"`
	Meta      map[string]interface{} `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
