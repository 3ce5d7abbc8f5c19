package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item is a catalogue entry a plan or schedule can point to: a training
// session or a meal. Trainings and meals live in separate collections.
type Item struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category    Category           `bson:"-" json:"category"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Level       string             `bson:"level,omitempty" json:"level,omitempty"`
	Goal        string             `bson:"goal,omitempty" json:"goal,omitempty"`

	DurationMinutes int      `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Steps           []string `bson:"steps,omitempty" json:"steps,omitempty"`
	VideoURL        string   `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`

	Slot     MealSlot `bson:"slot,omitempty" json:"slot,omitempty"`
	Calories float64  `bson:"calories,omitempty" json:"calories,omitempty"`
	Protein  float64  `bson:"protein,omitempty" json:"protein,omitempty"`
	Carbs    float64  `bson:"carbs,omitempty" json:"carbs,omitempty"`
	Fat      float64  `bson:"fat,omitempty" json:"fat,omitempty"`

	// ImageKey is the object key in the media bucket; clients receive a presigned URL.
	ImageKey string `bson:"imageKey,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
