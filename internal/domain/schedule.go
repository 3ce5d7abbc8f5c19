package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntryStatus tracks what the user did with a scheduled item.
type EntryStatus string

const (
	StatusPending EntryStatus = "pending"
	StatusDone    EntryStatus = "done"
	StatusSkipped EntryStatus = "skipped"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusSkipped:
		return true
	}
	return false
}

// ScheduleEntry is one concrete item on a user's calendar.
type ScheduleEntry struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"`
	PlanID    *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	Category  Category            `bson:"category" json:"category"`
	ItemRef   primitive.ObjectID  `bson:"itemRef" json:"itemRef"`
	Subtype   MealSlot            `bson:"subtype" json:"subtype,omitempty"`
	Date      Date                `bson:"date" json:"date"`
	Time      string              `bson:"time,omitempty" json:"time,omitempty"`
	Status    EntryStatus         `bson:"status" json:"status"`
	Note      string              `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IdentityKey is what makes a schedule entry unique for a user.
type IdentityKey struct {
	UserID  primitive.ObjectID
	ItemRef primitive.ObjectID
	Date    Date
	Subtype MealSlot
}

func (e *ScheduleEntry) Key() IdentityKey {
	return IdentityKey{UserID: e.UserID, ItemRef: e.ItemRef, Date: e.Date, Subtype: e.Subtype}
}

// ScheduleItem is a schedule entry joined with its catalogue item, for display.
type ScheduleItem struct {
	ScheduleEntry
	ItemName string `json:"itemName,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}
