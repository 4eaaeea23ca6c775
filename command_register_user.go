package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	UseHashid   bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	// OnResponse receives the created record before the handler returns.
	OnResponse func(*User)
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:         repo,
		activitySink: noopActivitySink{},
	}
}

func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		username := getUsername(event.Username, event.Email)

		// Pre-check both unique columns so callers get a clean conflict
		// instead of a driver error. The storage constraint still backstops
		// concurrent registrations.
		if _, err := h.repo.Users().GetByUsernameTx(ctx, tx, username); err == nil {
			return ErrAlreadyRegistered.WithMetadata(map[string]any{
				"field": "username",
			})
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
		}

		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return ErrAlreadyRegistered.WithMetadata(map[string]any{
				"field": "email",
			})
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Username = username
		user.DisplayName = getDisplayName(event.DisplayName, username)
		user.AvatarURL = event.AvatarURL
		user.Status = UserStatusOffline
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if IsConflict(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.recordRegistration(ctx, user)

	if h.OnResponse != nil {
		h.OnResponse(user)
	}

	return nil
}

func (h *RegisterUserHandler) recordRegistration(ctx context.Context, user *User) {
	sink := normalizeActivitySink(h.activitySink)
	_ = sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventRegistered,
		Actor:      ActorRef{Type: "user", ID: user.ID.String()},
		UserID:     user.ID.String(),
		ToStatus:   user.Status,
		OccurredAt: time.Now(),
	})
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

func getDisplayName(displayName, username string) string {
	if displayName != "" {
		return displayName
	}
	return username
}
