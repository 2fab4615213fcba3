package domain

import "time"

// GroupMember is a participant in a shared-expense group with a running balance.
type GroupMember struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	BalanceMinor int64  `json:"balance_minor"`
}

// Group is a shared-expense group.
type Group struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	TotalMinor int64         `json:"total_minor"`
	Members    []GroupMember `json:"members"`
	CreatedAt  time.Time     `json:"created_at"`
}

// GroupInput is the boundary-validated payload for creating a group.
type GroupInput struct {
	Name    string   `json:"name" validate:"required,min=1,max=120"`
	Members []string `json:"members" validate:"required,min=1,dive,uuid4"`
}

// GroupUpdate carries partial updates applied to an existing group.
type GroupUpdate struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	TotalMinor *int64  `json:"total_minor" validate:"omitempty,gte=0"`
}
