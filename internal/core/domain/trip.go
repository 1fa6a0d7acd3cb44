package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripStatus is derived from the trip dates.
type TripStatus string

const (
	TripPlanned   TripStatus = "planned"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
)

// Trip groups travel spending against a budget.
type Trip struct {
	ID           string          `json:"id"`
	Name         string          `json:"name" binding:"required"`
	Destination  string          `json:"destination,omitempty"`
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
	Budget       decimal.Decimal `json:"budget"`
	Spent        decimal.Decimal `json:"spent"`
	Participants []string        `json:"participants,omitempty"`
	Status       TripStatus      `json:"status,omitempty"`
	AuditFields
}

func (t *Trip) GetID() string   { return t.ID }
func (t *Trip) SetID(id string) { t.ID = id }

// Validate checks the trip's fields.
func (t *Trip) Validate() error {
	if err := validateStruct(t); err != nil {
		return err
	}
	if t.StartDate.IsZero() {
		return validationError("trip start date is required")
	}
	if !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		return validationError("trip end date is before its start date")
	}
	if t.Budget.IsNegative() {
		return validationError("trip budget must not be negative")
	}
	return nil
}

// Clone returns a deep copy.
func (t *Trip) Clone() Entity {
	c := *t
	c.Participants = cloneStrings(t.Participants)
	return &c
}

// StatusAt derives the trip status at the given instant. A trip without an end date stays active
// once started. The end date is inclusive for the whole day.
func (t Trip) StatusAt(now time.Time) TripStatus {
	if now.Before(t.StartDate) {
		return TripPlanned
	}
	if !t.EndDate.IsZero() && now.After(endOfDay(t.EndDate)) {
		return TripCompleted
	}
	return TripActive
}

// RemainingBudget is Budget minus Spent; negative when over budget.
func (t Trip) RemainingBudget() decimal.Decimal {
	return t.Budget.Sub(t.Spent)
}

func endOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 23, 59, 59, int(time.Second-time.Nanosecond), d.Location())
}
