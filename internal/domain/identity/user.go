package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/flowershop/storefront/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Permissions granted to staff accounts
const (
	PermissionCatalogManage = "catalog:manage"
	PermissionOrderManage   = "order:manage"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// Password cost for bcrypt
var bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9\-]+$`)
	personRegex   = regexp.MustCompile(`^[а-яА-ЯёЁ\s\-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// PersonName is the full name of a customer
type PersonName struct {
	First      string
	Last       string
	Patronymic string
}

// User is a shop customer or staff member
type User struct {
	shared.BaseAggregateRoot
	Username     string
	Email        string
	Name         PersonName
	PasswordHash string
	IsStaff      bool
	IsActive     bool
	LastLoginAt  *time.Time
}

// NewUser creates an active customer account
func NewUser(username, email, password string, name PersonName) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	name = PersonName{
		First:      strings.TrimSpace(name.First),
		Last:       strings.TrimSpace(name.Last),
		Patronymic: strings.TrimSpace(name.Patronymic),
	}

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePersonName(name); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		Email:             email,
		Name:              name,
		PasswordHash:      hash,
		IsActive:          true,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// NewStaffUser creates an active back-office account
func NewStaffUser(username, email, password string, name PersonName) (*User, error) {
	user, err := NewUser(username, email, password, name)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	return user, nil
}

// VerifyPassword checks password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword replaces the password after verifying the old one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// FullName returns "Last First Patronymic" without empty parts
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.Name.Last, u.Name.First, u.Name.Patronymic} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// DisplayName returns the full name or the username when no name is set
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Username
}

// Permissions returns the permission codes carried in access tokens
func (u *User) Permissions() []string {
	if !u.IsStaff {
		return []string{}
	}
	return []string{PermissionCatalogManage, PermissionOrderManage}
}

// RecordLogin stores the time of a successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Deactivate blocks the account from logging in
func (u *User) Deactivate() error {
	if !u.IsActive {
		return shared.NewDomainError("INVALID_STATE", "User is already deactivated")
	}
	u.IsActive = false
	u.Touch()
	return nil
}

// ValidateUsername checks the login format: latin letters, digits and dashes
func ValidateUsername(username string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) > 150 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Only latin letters, digits and dashes are allowed")
	}
	return nil
}

// ValidatePersonName checks that name parts use Cyrillic letters, spaces and
// dashes. First and last name are required; patronymic is optional.
func ValidatePersonName(name PersonName) error {
	if name.First == "" || name.Last == "" {
		return shared.NewDomainError("INVALID_NAME", "First and last name are required")
	}
	for _, part := range []string{name.First, name.Last, name.Patronymic} {
		if part == "" {
			continue
		}
		if len([]rune(part)) > 150 {
			return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 150 characters")
		}
		if !personRegex.MatchString(part) {
			return shared.NewDomainError("INVALID_NAME", "Only Cyrillic letters, spaces and dashes are allowed")
		}
	}
	return nil
}

// IsPersonNamePart reports whether s is a well-formed single name part
func IsPersonNamePart(s string) bool {
	return personRegex.MatchString(s)
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return shared.NewDomainErrorf("INVALID_PASSWORD", "Password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// SetPasswordCost changes the bcrypt cost used for new password hashes.
// Values outside bcrypt's accepted range are clamped.
func SetPasswordCost(cost int) {
	bcryptCost = min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)
}
