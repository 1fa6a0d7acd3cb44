package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentOperation is the side of an investment trade.
type InvestmentOperation string

const (
	Buy  InvestmentOperation = "buy"
	Sell InvestmentOperation = "sell"
)

// Investment records one buy or sell operation.
type Investment struct {
	ID         string              `json:"id"`
	Operation  InvestmentOperation `json:"operation" binding:"required,oneof=buy sell"`
	Ticker     string              `json:"ticker" binding:"required"`
	Quantity   decimal.Decimal     `json:"quantity"`
	Price      decimal.Decimal     `json:"price"`
	TotalValue decimal.Decimal     `json:"totalValue"`
	Fees       decimal.Decimal     `json:"fees"`
	Date       time.Time           `json:"date"`
	AccountID  string              `json:"accountId,omitempty"`
	AuditFields
}

func (i *Investment) GetID() string   { return i.ID }
func (i *Investment) SetID(id string) { i.ID = id }

// Validate checks the operation's fields.
func (i *Investment) Validate() error {
	if err := validateStruct(i); err != nil {
		return err
	}
	if !i.Quantity.IsPositive() {
		return validationError("investment quantity must be positive")
	}
	if i.Price.IsNegative() || i.Fees.IsNegative() {
		return validationError("investment price and fees must not be negative")
	}
	return nil
}

// Clone returns a copy.
func (i *Investment) Clone() Entity {
	c := *i
	return &c
}

// Position is the consolidated holding of one ticker.
type Position struct {
	Ticker       string          `json:"ticker"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	Operations   int             `json:"operations"`
}

// ConsolidatePositions merges same-ticker operations into weighted-average positions. Buy fees are
// part of the cost basis; sells reduce quantity and cost at the running average price. Closed
// positions are dropped. Operations are applied in date order.
func ConsolidatePositions(investments []Investment) []Position {
	ordered := make([]Investment, len(investments))
	copy(ordered, investments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	byTicker := make(map[string]*Position)
	for _, inv := range ordered {
		ticker := strings.ToUpper(strings.TrimSpace(inv.Ticker))
		pos, ok := byTicker[ticker]
		if !ok {
			pos = &Position{Ticker: ticker}
			byTicker[ticker] = pos
		}
		pos.Operations++

		switch inv.Operation {
		case Buy:
			pos.TotalCost = pos.TotalCost.Add(inv.Quantity.Mul(inv.Price)).Add(inv.Fees)
			pos.Quantity = pos.Quantity.Add(inv.Quantity)
		case Sell:
			sold := decimal.Min(inv.Quantity, pos.Quantity)
			if pos.Quantity.IsPositive() {
				avg := pos.TotalCost.Div(pos.Quantity)
				pos.TotalCost = pos.TotalCost.Sub(avg.Mul(sold))
			}
			pos.Quantity = pos.Quantity.Sub(sold)
		}
		if pos.Quantity.IsPositive() {
			pos.AveragePrice = pos.TotalCost.Div(pos.Quantity).Round(4)
		} else {
			pos.AveragePrice = decimal.Zero
			pos.TotalCost = decimal.Zero
		}
	}

	positions := make([]Position, 0, len(byTicker))
	for _, pos := range byTicker {
		if pos.Quantity.IsPositive() {
			positions = append(positions, *pos)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Ticker < positions[j].Ticker })
	return positions
}
