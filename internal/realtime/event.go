// Package realtime carries row-level change events of the donation table to
// the processes that render volunteer job lists.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Ridhim15/Danam-Application/internal/models"
)

// Op is the kind of row change
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
	// OpResync tells a subscriber it missed events and must reload.
	// It is only produced in process and carries no row.
	OpResync Op = "RESYNC"
)

// DonationTable is the only table carried on the bus
const DonationTable = "donation"

// Event is one row change
type Event struct {
	Op    Op                      `json:"op"`
	Table string                  `json:"table"`
	ID    int64                   `json:"id"`
	Row   *models.DonationRequest `json:"row,omitempty"`
}

// DonationEvent builds an event for a donation row
func DonationEvent(op Op, d models.DonationRequest) Event {
	return Event{Op: op, Table: DonationTable, ID: d.ID, Row: &d}
}

// Decode parses an event payload as produced by the database trigger or by Encode
func Decode(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode change event: %w", err)
	}
	switch ev.Op {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return Event{}, fmt.Errorf("unknown change op %q", ev.Op)
	}
	if ev.Row != nil {
		if !ev.Row.Status.IsValid() {
			return Event{}, fmt.Errorf("unknown donation status %q", ev.Row.Status)
		}
		if ev.ID == 0 {
			ev.ID = ev.Row.ID
		}
	}
	return ev, nil
}

// Encode serialises an event
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Bus distributes change events
type Bus interface {
	// Publish announces a change made by this process
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events that is closed when ctx is done
	Subscribe(ctx context.Context) <-chan Event
}
