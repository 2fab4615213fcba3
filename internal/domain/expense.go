package domain

import "time"

// Expense is a single spend record shown on the dashboard and expense views.
// Amounts are stored in minor units (paise) to avoid float drift.
type Expense struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	AmountMinor   int64     `json:"amount_minor"`
	Category      string    `json:"category"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExpenseInput is the boundary-validated payload for recording an expense.
type ExpenseInput struct {
	Title         string `json:"title" validate:"required,min=1,max=200"`
	AmountMinor   int64  `json:"amount_minor" validate:"required,gt=0"`
	Category      string `json:"category" validate:"required,oneof=food transport shopping bills entertainment health other"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=upi card cash netbanking"`
}
