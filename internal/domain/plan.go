package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanType controls how plan entries are laid out on the calendar.
type PlanType string

const (
	PlanDaily   PlanType = "daily"
	PlanWeekly  PlanType = "weekly"
	PlanMonthly PlanType = "monthly"
)

func (t PlanType) Valid() bool {
	switch t {
	case PlanDaily, PlanWeekly, PlanMonthly:
		return true
	}
	return false
}

// SpanDays is the number of calendar days one application of the plan covers.
func (t PlanType) SpanDays() int {
	switch t {
	case PlanWeekly:
		return 7
	case PlanMonthly:
		return MaxDayNumber
	default:
		return 1
	}
}

// Category distinguishes workout plans from meal plans.
type Category string

const (
	CategoryTraining Category = "training"
	CategoryMeal     Category = "meal"
)

func (c Category) Valid() bool {
	return c == CategoryTraining || c == CategoryMeal
}

// MaxDayNumber is the last day a monthly plan entry may target.
const MaxDayNumber = 30

// Weekday is a day-of-week key used by weekly plan entries.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

var weekdayIndex = map[Weekday]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

// weekdayAliases maps long English names and the labels older plan
// documents were stored with.
var weekdayAliases = map[string]Weekday{
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"saturday":  Saturday,
	"sunday":    Sunday,
	"thứ 2":     Monday,
	"thứ 3":     Tuesday,
	"thứ 4":     Wednesday,
	"thứ 5":     Thursday,
	"thứ 6":     Friday,
	"thứ 7":     Saturday,
	"chủ nhật":  Sunday,
}

// ParseWeekday accepts the short keys plus the aliases above, case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if _, ok := weekdayIndex[Weekday(key)]; ok {
		return Weekday(key), nil
	}
	if w, ok := weekdayAliases[key]; ok {
		return w, nil
	}
	return "", fmt.Errorf("unknown day of week %q", s)
}

// WeekdayOf returns the key for a time.Weekday.
func WeekdayOf(wd time.Weekday) Weekday {
	for k, v := range weekdayIndex {
		if v == wd {
			return k
		}
	}
	return ""
}

// TimeWeekday maps the key onto time.Weekday (Sunday = 0).
func (w Weekday) TimeWeekday() (time.Weekday, bool) {
	wd, ok := weekdayIndex[w]
	return wd, ok
}

// MealSlot is the subtype of a meal entry. Training entries leave it empty.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
	SlotSnack     MealSlot = "snack"
)

var mealSlotAliases = map[string]MealSlot{
	"bữa sáng": SlotBreakfast,
	"bữa trưa": SlotLunch,
	"bữa tối":  SlotDinner,
	"bữa phụ":  SlotSnack,
}

func ParseMealSlot(s string) (MealSlot, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch MealSlot(key) {
	case SlotBreakfast, SlotLunch, SlotDinner, SlotSnack:
		return MealSlot(key), nil
	}
	if slot, ok := mealSlotAliases[key]; ok {
		return slot, nil
	}
	return "", fmt.Errorf("unknown meal slot %q", s)
}

// PlanEntry is one item of a plan. Exactly one day discriminator applies,
// chosen by the plan type: DayOfWeek for weekly, DayNumber for monthly,
// none for daily (day 1 is tolerated).
type PlanEntry struct {
	DayOfWeek Weekday            `bson:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"`
	DayNumber int                `bson:"dayNumber,omitempty" json:"dayNumber,omitempty"`
	ItemRef   primitive.ObjectID `bson:"itemRef" json:"itemRef"`
	Subtype   MealSlot           `bson:"subtype,omitempty" json:"subtype,omitempty"`
	Time      string             `bson:"time,omitempty" json:"time,omitempty"` // advisory, e.g. "07:30"
}

// Plan is a reusable training or meal template.
type Plan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        PlanType           `bson:"type" json:"type"`
	Category    Category           `bson:"category" json:"category"`
	Level       string             `bson:"level,omitempty" json:"level,omitempty"`
	Goals       []string           `bson:"goals,omitempty" json:"goals,omitempty"`
	Entries     []PlanEntry        `bson:"entries" json:"entries"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

var (
	ErrInvalidPlan  = errors.New("invalid plan")
	ErrInvalidEntry = errors.New("invalid plan entry")
)

// ValidateEntry checks that the entry's day discriminator fits planType.
func ValidateEntry(planType PlanType, category Category, e PlanEntry) error {
	if e.ItemRef.IsZero() {
		return fmt.Errorf("%w: missing item reference", ErrInvalidEntry)
	}
	switch planType {
	case PlanDaily:
		// stored daily plans may carry day 1; a weekday label is ignored
		if e.DayNumber != 0 && e.DayNumber != 1 {
			return fmt.Errorf("%w: daily entries are always day 1, got %d", ErrInvalidEntry, e.DayNumber)
		}
	case PlanWeekly:
		if _, ok := e.DayOfWeek.TimeWeekday(); !ok {
			return fmt.Errorf("%w: day of week %q", ErrInvalidEntry, e.DayOfWeek)
		}
	case PlanMonthly:
		if e.DayNumber < 1 || e.DayNumber > MaxDayNumber {
			return fmt.Errorf("%w: day number %d out of range 1..%d", ErrInvalidEntry, e.DayNumber, MaxDayNumber)
		}
	default:
		return fmt.Errorf("%w: plan type %q", ErrInvalidEntry, planType)
	}
	if category == CategoryMeal {
		if _, err := ParseMealSlot(string(e.Subtype)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
		}
	}
	return nil
}

// Validate checks a plan before it is stored.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidPlan, p.Type)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidPlan, p.Category)
	}
	if len(p.Entries) == 0 {
		return fmt.Errorf("%w: at least one entry is required", ErrInvalidPlan)
	}
	for i, e := range p.Entries {
		if err := ValidateEntry(p.Type, p.Category, e); err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrInvalidPlan, i, err)
		}
	}
	return nil
}

// ItemRefs returns the distinct item references in entry order.
func (p *Plan) ItemRefs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(p.Entries))
	refs := make([]primitive.ObjectID, 0, len(p.Entries))
	for _, e := range p.Entries {
		if _, ok := seen[e.ItemRef]; ok {
			continue
		}
		seen[e.ItemRef] = struct{}{}
		refs = append(refs, e.ItemRef)
	}
	return refs
}
