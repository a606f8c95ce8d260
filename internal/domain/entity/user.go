package entity

import (
	"errors"
	"strings"
	"time"
)

// Role is a user's authorization role. Route guards consume it as plain data.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Status is the account lifecycle state. Which pending state a fresh account
// starts in depends on the registration entry point (email-first vs
// profile-first); they are alternate entry points, never concurrent states.
type Status string

const (
	StatusPendingProfile  Status = "pending_profile_information"
	StatusPendingEmail    Status = "pending_email_activation"
	StatusPendingApproval Status = "pending_approval"
	StatusActive          Status = "active"
	StatusDenied          Status = "denied"
	StatusDeactivated     Status = "deactivated"
	StatusDeleted         Status = "deleted"
)

// ErrInvalidStateTransition is returned when a lifecycle transition is
// attempted from an incompatible current state. Deliberately distinct from
// a not-found error so callers can tell a conflict from an absent user.
var ErrInvalidStateTransition = errors.New("invalid account state transition")

// transitions holds the allowed next states per state. Soft delete is handled
// separately: Deleted is reachable from every non-Deleted state and terminal.
var transitions = map[Status][]Status{
	StatusPendingProfile:  {StatusPendingApproval, StatusActive},
	StatusPendingEmail:    {StatusPendingApproval, StatusActive},
	StatusPendingApproval: {StatusActive, StatusDenied},
	StatusActive:          {StatusDeactivated},
	StatusDeactivated:     {StatusActive},
	StatusDenied:          {},
	StatusDeleted:         {},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusDeleted {
		return s != StatusDeleted
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// User is the aggregate root of the accounts domain. Password holds the
// peppered bcrypt hash, never a plaintext.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Password  string
	AvatarURL string
	Status    Status
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// NormalizeEmail lowercases and trims an email address. Applied before every
// persistence or comparison; emails are always lowercase at rest.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TransitionTo moves the account to next after validating the move against
// the current status.
func (u *User) TransitionTo(next Status) error {
	if !u.Status.CanTransitionTo(next) {
		return ErrInvalidStateTransition
	}
	u.Status = next
	return nil
}

// SoftDelete marks the account Deleted and stamps DeletedAt. Accounts are
// never hard-deleted; Deleted is terminal.
func (u *User) SoftDelete(now time.Time) error {
	if err := u.TransitionTo(StatusDeleted); err != nil {
		return err
	}
	u.DeletedAt = &now
	return nil
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
