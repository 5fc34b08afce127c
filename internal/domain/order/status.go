package order

import "github.com/google/uuid"

// Status represents the lifecycle state of an order
type Status string

const (
	StatusNew       Status = "new"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves this status
func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}

// CanTransitionTo checks if the status can move to target
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusNew:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusCancelled
	}
	return false
}

// Role is the capability an actor holds when acting on an order
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Actor identifies who requests a transition and with which capability
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// CustomerActor returns an actor acting as the order owner
func CustomerActor(userID uuid.UUID) Actor {
	return Actor{UserID: userID, Role: RoleCustomer}
}

// AdminActor returns an actor with back-office rights
func AdminActor(userID uuid.UUID) Actor {
	return Actor{UserID: userID, Role: RoleAdmin}
}

// IsAdmin reports whether the actor holds back-office rights
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
