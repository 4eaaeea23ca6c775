package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the presence state of an account. Presence is externally
// driven: clients report it, nothing in this package times it out.
type UserStatus = string

const (
	// UserStatusOnline marks an account with an active client.
	UserStatusOnline UserStatus = "online"
	// UserStatusOffline is the default state for new accounts; entering it
	// stamps LastSeen.
	UserStatusOffline UserStatus = "offline"
	// UserStatusAway marks an idle client.
	UserStatusAway UserStatus = "away"
	// UserStatusBusy marks a do-not-disturb client.
	UserStatusBusy UserStatus = "busy"
)

// ValidUserStatus reports whether s is one of the four presence states.
func ValidUserStatus(s UserStatus) bool {
	switch s {
	case UserStatusOnline, UserStatusOffline, UserStatusAway, UserStatusBusy:
		return true
	default:
		return false
	}
}

// User is the account model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	DisplayName    string     `bun:"display_name,notnull" json:"display_name,omitempty"`
	AvatarURL      *string    `bun:"avatar_url" json:"avatar_url,omitempty"`
	Status         UserStatus `bun:"status,notnull" json:"status,omitempty"`
	LastSeen       *time.Time `bun:"last_seen,nullzero" json:"last_seen,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the default presence for records created before the
// status column existed or built by hand in tests.
func (u *User) EnsureStatus() {
	if u == nil {
		return
	}
	if u.Status == "" {
		u.Status = UserStatusOffline
	}
}

// Touch refreshes the UpdatedAt timestamp ahead of a mutation.
func (u *User) Touch(now time.Time) *User {
	u.UpdatedAt = &now
	return u
}
