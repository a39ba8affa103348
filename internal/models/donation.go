package models

import (
	"strings"
	"time"
)

// DonationStatus represents the lifecycle state of a donation
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusAccepted  DonationStatus = "accepted"
	DonationStatusCompleted DonationStatus = "completed"
)

// IsValid checks if the status is a known lifecycle state
func (s DonationStatus) IsValid() bool {
	switch s {
	case DonationStatusPending, DonationStatusAccepted, DonationStatusCompleted:
		return true
	default:
		return false
	}
}

// rank orders the states; status only ever moves to a higher rank
func (s DonationStatus) rank() int {
	switch s {
	case DonationStatusPending:
		return 0
	case DonationStatusAccepted:
		return 1
	case DonationStatusCompleted:
		return 2
	default:
		return -1
	}
}

// Next returns the state that follows s, if any
func (s DonationStatus) Next() (DonationStatus, bool) {
	switch s {
	case DonationStatusPending:
		return DonationStatusAccepted, true
	case DonationStatusAccepted:
		return DonationStatusCompleted, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether to is the single forward step after s
func (s DonationStatus) CanTransitionTo(to DonationStatus) bool {
	next, ok := s.Next()
	return ok && next == to
}

// IsAfter reports whether s is strictly later in the lifecycle than other
func (s DonationStatus) IsAfter(other DonationStatus) bool {
	return s.rank() > other.rank()
}

// ItemType is a donatable item category as shown to donors
type ItemType string

const (
	ItemTypeMedicine ItemType = "Medicine"
	ItemTypeBooks    ItemType = "Books"
	ItemTypeClothes  ItemType = "Clothes"
	ItemTypeFood     ItemType = "Food"
)

// ItemTypes lists the categories in display order
var ItemTypes = []ItemType{ItemTypeFood, ItemTypeBooks, ItemTypeClothes, ItemTypeMedicine}

// Column returns the donation table column that counts this item type
func (t ItemType) Column() string {
	switch t {
	case ItemTypeMedicine:
		return "meds"
	case ItemTypeBooks:
		return "books"
	case ItemTypeClothes:
		return "clothes"
	case ItemTypeFood:
		return "food"
	default:
		return ""
	}
}

// ParseItemType accepts display names and column names, case-insensitively
func ParseItemType(s string) (ItemType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range ItemTypes {
		if strings.EqualFold(string(t), s) || strings.EqualFold(t.Column(), s) {
			return t, true
		}
	}
	return "", false
}

// ItemCounts holds the four per-category counts of a donation
type ItemCounts struct {
	Meds    int `json:"meds" db:"meds"`
	Books   int `json:"books" db:"books"`
	Clothes int `json:"clothes" db:"clothes"`
	Food    int `json:"food" db:"food"`
}

// Add increments the count of one item type
func (c *ItemCounts) Add(t ItemType, quantity int) {
	switch t {
	case ItemTypeMedicine:
		c.Meds += quantity
	case ItemTypeBooks:
		c.Books += quantity
	case ItemTypeClothes:
		c.Clothes += quantity
	case ItemTypeFood:
		c.Food += quantity
	}
}

// Get returns the count of one item type
func (c ItemCounts) Get(t ItemType) int {
	switch t {
	case ItemTypeMedicine:
		return c.Meds
	case ItemTypeBooks:
		return c.Books
	case ItemTypeClothes:
		return c.Clothes
	case ItemTypeFood:
		return c.Food
	default:
		return 0
	}
}

// Total returns the sum of all four counts
func (c ItemCounts) Total() int {
	return c.Meds + c.Books + c.Clothes + c.Food
}

// PrimaryType returns the category with the highest count, or "Mixed" when all are zero.
// Ties go to the first category in Medicine, Books, Clothes, Food order.
func (c ItemCounts) PrimaryType() string {
	best := ItemTypeMedicine
	for _, t := range []ItemType{ItemTypeBooks, ItemTypeClothes, ItemTypeFood} {
		if c.Get(t) > c.Get(best) {
			best = t
		}
	}
	if c.Get(best) == 0 {
		return "Mixed"
	}
	return string(best)
}

// DonationRequest is a pickup request stored in the donation table.
// JSON names match the column names so change-feed rows decode directly.
type DonationRequest struct {
	ID int64 `json:"id" db:"id"`
	ItemCounts
	NGO       string         `json:"ngo" db:"ngo"`
	NGOID     string         `json:"ngo_id,omitempty" db:"ngo_id"`
	Status    DonationStatus `json:"status" db:"status"`
	UID       string         `json:"uid" db:"uid"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// DonationStatusChange records one status write
type DonationStatusChange struct {
	ID         int64          `json:"id" db:"id"`
	DonationID int64          `json:"donation_id" db:"donation_id"`
	OldStatus  DonationStatus `json:"old_status" db:"old_status"`
	NewStatus  DonationStatus `json:"new_status" db:"new_status"`
	ChangedBy  string         `json:"changed_by" db:"changed_by"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// Transition describes a conditional status write: the row moves to To
// only if its current status is one of From.
type Transition struct {
	DonationID int64
	From       []DonationStatus
	To         DonationStatus
	ChangedBy  string
}

// Allows reports whether a row currently in status s matches the transition.
// Only a single forward step or a rewrite of the target status can match.
func (t Transition) Allows(s DonationStatus) bool {
	if s != t.To && !s.CanTransitionTo(t.To) {
		return false
	}
	for _, f := range t.From {
		if f == s {
			return true
		}
	}
	return false
}

// DonationItem is one line of a schedule-pickup form
type DonationItem struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// CreateDonationRequest represents a request to schedule a pickup
type CreateDonationRequest struct {
	NGO   string         `json:"ngo"`
	Items []DonationItem `json:"items"`
}

// Placeholders shown when a donor's profile is missing or incomplete
const (
	PlaceholderDonorName = "User Name Not Set"
	PlaceholderNotSet    = "Not set by user"
)

// DonationJob is a donation as a volunteer sees it, with donor contact details attached
type DonationJob struct {
	DonationRequest
	DonorName    string `json:"donor_name"`
	DonorAddress string `json:"donor_address"`
	DonorPhone   string `json:"donor_phone"`
	PrimaryType  string `json:"primary_type"`
	Label        string `json:"label"`
	Actionable   bool   `json:"actionable"`
}

// JobBoard is the volunteer's pending list and "my work" list
type JobBoard struct {
	Pending  []DonationJob `json:"pending"`
	Accepted []DonationJob `json:"accepted"`
}
