package domain

import "time"

// UserType classifies an account for advisor and dashboard defaults.
type UserType string

const (
	UserTypeRegular      UserType = "regular"
	UserTypeProfessional UserType = "professional"
	UserTypeStudent      UserType = "student"
)

// Preferences holds per-user display settings carried inside the session.
type Preferences struct {
	Language string `json:"language" validate:"omitempty,bcp47_language_tag"`
	Currency string `json:"currency" validate:"omitempty,iso4217"`
	Theme    string `json:"theme" validate:"omitempty,oneof=light dark"`
}

// DefaultPreferences returns the preferences assigned to freshly created accounts.
func DefaultPreferences() Preferences {
	return Preferences{
		Language: "en",
		Currency: "INR",
		Theme:    "light",
	}
}

// Session represents the currently authenticated user of this process.
// Absence of a session means anonymous.
type Session struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	UserType    UserType    `json:"user_type"`
	Avatar      string      `json:"avatar,omitempty"`
	CreditScore int         `json:"credit_score"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Clone returns an independent copy so callers cannot mutate store-owned state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	copied := *s
	return &copied
}

// SignupInput is the boundary-validated payload for account creation.
type SignupInput struct {
	Name     string   `json:"name" validate:"required,min=1,max=120"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,max=72"`
	UserType UserType `json:"user_type" validate:"required,oneof=regular professional student"`
	Avatar   string   `json:"avatar" validate:"omitempty,url"`
}
