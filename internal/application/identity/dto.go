package identity

import (
	"time"

	"github.com/flowershop/storefront/internal/domain/identity"
	"github.com/google/uuid"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	Username       string `json:"username" binding:"required,min=3,max=150,login"`
	Email          string `json:"email" binding:"required,email,max=254"`
	FirstName      string `json:"first_name" binding:"required,max=150,cyrillic_name"`
	LastName       string `json:"last_name" binding:"required,max=150,cyrillic_name"`
	Patronymic     string `json:"patronymic" binding:"omitempty,max=150,cyrillic_name"`
	Password       string `json:"password" binding:"required,min=6,max=72"`
	PasswordRepeat string `json:"password_repeat" binding:"required"`
	AcceptRules    bool   `json:"accept_rules"`
}

// LoginInput contains the input for user login
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string        // JWT ID for blacklisting (optional)
	TokenTTL time.Duration // remaining lifetime of the access token
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID `json:"-"`
	OldPassword string    `json:"old_password" binding:"required"`
	NewPassword string    `json:"new_password" binding:"required,min=6,max=72"`
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Patronymic  string     `json:"patronymic,omitempty"`
	FullName    string     `json:"full_name"`
	IsStaff     bool       `json:"is_staff"`
	Permissions []string   `json:"permissions"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// AuthResult is returned by login and registration
type AuthResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  UserInfo  `json:"user"`
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// ToUserInfo converts a domain user to its response form
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.Name.First,
		LastName:    u.Name.Last,
		Patronymic:  u.Name.Patronymic,
		FullName:    u.FullName(),
		IsStaff:     u.IsStaff,
		Permissions: u.Permissions(),
		LastLoginAt: u.LastLoginAt,
	}
}
