package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// GoalPriority ranks goals against each other.
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

// Goal is a savings target. CurrentAmount above TargetAmount is allowed and counts as completed.
type Goal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name" binding:"required"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Category      string          `json:"category,omitempty"`
	Priority      GoalPriority    `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
	Completed     bool            `json:"completed,omitempty"`
	AuditFields
}

// UnmarshalJSON accepts the legacy {current,target} shape and migrates it into
// CurrentAmount/TargetAmount. The canonical fields win when both are present.
func (g *Goal) UnmarshalJSON(data []byte) error {
	type goalAlias Goal
	aux := struct {
		*goalAlias
		CurrentAmount *decimal.Decimal `json:"currentAmount"`
		TargetAmount  *decimal.Decimal `json:"targetAmount"`
		Current       *decimal.Decimal `json:"current"`
		Target        *decimal.Decimal `json:"target"`
	}{goalAlias: (*goalAlias)(g)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.CurrentAmount != nil:
		g.CurrentAmount = *aux.CurrentAmount
	case aux.Current != nil:
		g.CurrentAmount = *aux.Current
	}
	switch {
	case aux.TargetAmount != nil:
		g.TargetAmount = *aux.TargetAmount
	case aux.Target != nil:
		g.TargetAmount = *aux.Target
	}
	return nil
}

func (g *Goal) GetID() string   { return g.ID }
func (g *Goal) SetID(id string) { g.ID = id }

// Validate checks the goal's fields.
func (g *Goal) Validate() error {
	if err := validateStruct(g); err != nil {
		return err
	}
	if !g.TargetAmount.IsPositive() {
		return validationError("goal target amount must be positive")
	}
	if g.CurrentAmount.IsNegative() {
		return validationError("goal current amount must not be negative")
	}
	return nil
}

// Clone returns a deep copy.
func (g *Goal) Clone() Entity {
	c := *g
	if g.Deadline != nil {
		d := *g.Deadline
		c.Deadline = &d
	}
	return &c
}

// IsCompleted reports whether the goal is marked complete or has reached its target.
func (g Goal) IsCompleted() bool {
	return g.Completed || g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// IsActive reports whether the goal is still being saved towards.
func (g Goal) IsActive() bool {
	return !g.Completed && g.CurrentAmount.LessThan(g.TargetAmount)
}

// Progress is the percentage of the target reached, capped at 100.
func (g Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	pct := g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).Round(2)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
