package domain

import "time"

// Account is a persisted user record owned by the identity service.
// SecretHash never leaves the identity package boundary.
type Account struct {
	ID          string
	Name        string
	Email       string
	SecretHash  string
	UserType    UserType
	Avatar      string
	CreditScore int
	Preferences Preferences
	CreatedAt   time.Time
}

// Session derives the in-process session view of the account.
func (a *Account) Session() *Session {
	if a == nil {
		return nil
	}

	return &Session{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		UserType:    a.UserType,
		Avatar:      a.Avatar,
		CreditScore: a.CreditScore,
		Preferences: a.Preferences,
		CreatedAt:   a.CreatedAt,
	}
}
