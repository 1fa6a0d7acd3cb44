package dto

import (
	"github.com/SscSPs/finance_sync/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferRequest defines the data needed to move money between two accounts.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId" binding:"required"`
	ToAccountID   string          `json:"toAccountId" binding:"required,nefield=FromAccountID"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransferResponse returns both accounts after the transfer.
type TransferResponse struct {
	From domain.Account `json:"from"`
	To   domain.Account `json:"to"`
}

// PaymentRequest defines a payment against a shared debt.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PositionsResponse lists consolidated investment positions.
type PositionsResponse struct {
	Positions []domain.Position `json:"positions"`
}

// NotificationsResponse lists recent notifications, newest first.
type NotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// ContactLookupParams defines the query for a contact lookup by email.
type ContactLookupParams struct {
	Email string `form:"email" binding:"required,email"`
}
