package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the persistence surface for account records.
type Users interface {
	repository.Repository[*User]

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSucccessfulLogin(ctx context.Context, user *User) error
	TrackSucccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	GetByUsername(ctx context.Context, username string, criteria ...repository.SelectCriteria) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error)

	UpdatePresence(ctx context.Context, id uuid.UUID, status UserStatus, opts ...StatusUpdateOption) (*User, error)
	UpdatePresenceTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus, opts ...StatusUpdateOption) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered.WithMetadata(map[string]any{
				"username": record.Username,
				"email":    record.Email,
			})
		}
		return nil, err
	}
	return created, nil
}

func (a *users) GetByUsername(ctx context.Context, username string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username, criteria...)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.getByColumnTx(ctx, tx, "username", strings.TrimSpace(username), criteria...)
}

func (a *users) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email, criteria...)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.getByColumnTx(ctx, tx, "email", strings.TrimSpace(email), criteria...)
}

func (a *users) getByColumnTx(ctx context.Context, tx bun.IDB, column, value string, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

// GetByIdentifier resolves a user by id, email, or username, trying each
// plausible column in order.
func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record, err := a.getByColumnTx(ctx, tx, opt.column, opt.value, criteria...)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}
		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) TrackSucccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSucccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSucccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	// NOTE: Updating using the ORM fails due to a bug, it wont reset
	// login_attempt_at, login_attempts fields.
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(user.ID.String()),
	}

	record := &User{}
	record.ID = user.ID
	record.LoginAttempts = user.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)

	return err
}

func (a *users) UpdatePresence(ctx context.Context, id uuid.UUID, status UserStatus, opts ...StatusUpdateOption) (*User, error) {
	return a.UpdatePresenceTx(ctx, a.db, id, status, opts...)
}

func (a *users) UpdatePresenceTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus, opts ...StatusUpdateOption) (*User, error) {
	record := &User{
		ID:     id,
		Status: status,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(record)
		}
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

// StatusUpdateOption allows callers to mutate the user record before persisting status changes.
type StatusUpdateOption func(*User)

// WithLastSeen sets the LastSeen timestamp during a presence transition.
func WithLastSeen(at *time.Time) StatusUpdateOption {
	return func(u *User) {
		u.LastSeen = at
	}
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
