package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Optional tracks whether a JSON field was present in the payload and, when
// present, whether it was null. This is what lets a PATCH distinguish "leave
// the field alone" from "clear the field".
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Present reports whether the field appeared in the payload at all.
func (o Optional[T]) Present() bool { return o.Set }

// IsNull reports whether the field appeared as an explicit JSON null.
func (o Optional[T]) IsNull() bool { return o.Set && o.Null }

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ProfilePatch carries the fields a user may change on their own profile.
// Absent fields keep their stored value; an explicit null clears the field
// where the column is nullable.
type ProfilePatch struct {
	DisplayName Optional[string] `json:"display_name"`
	AvatarURL   Optional[string] `json:"avatar_url"`
}

type UpdateProfileMessage struct {
	UserID uuid.UUID
	Patch  ProfilePatch
}

func (e UpdateProfileMessage) Type() string { return "user.profile.update" }

type UpdateProfileHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	// OnResponse receives the updated record before the handler returns.
	OnResponse func(*User)
}

func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:         repo,
		activitySink: noopActivitySink{},
	}
}

func (h *UpdateProfileHandler) WithActivitySink(sink ActivitySink) *UpdateProfileHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	var user *User
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for update")
		}

		changed := applyProfilePatch(record, event.Patch)
		if !changed {
			user = record
			return nil
		}

		record.Touch(time.Now())

		if user, err = h.repo.Users().UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String())); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist profile update")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile update transaction failed")
	}

	h.recordProfileUpdate(ctx, user, event.Patch)

	if h.OnResponse != nil {
		h.OnResponse(user)
	}

	return nil
}

// applyProfilePatch merges only the fields present in the patch. DisplayName
// is not nullable so a null there is treated as absent; AvatarURL accepts an
// explicit null to clear the avatar.
func applyProfilePatch(user *User, patch ProfilePatch) bool {
	changed := false

	if patch.DisplayName.Present() && !patch.DisplayName.IsNull() {
		if user.DisplayName != patch.DisplayName.Value {
			user.DisplayName = patch.DisplayName.Value
			changed = true
		}
	}

	if patch.AvatarURL.Present() {
		if patch.AvatarURL.IsNull() {
			if user.AvatarURL != nil {
				user.AvatarURL = nil
				changed = true
			}
		} else {
			if user.AvatarURL == nil || *user.AvatarURL != patch.AvatarURL.Value {
				value := patch.AvatarURL.Value
				user.AvatarURL = &value
				changed = true
			}
		}
	}

	return changed
}

func (h *UpdateProfileHandler) recordProfileUpdate(ctx context.Context, user *User, patch ProfilePatch) {
	if user == nil {
		return
	}

	fields := []string{}
	if patch.DisplayName.Present() {
		fields = append(fields, "display_name")
	}
	if patch.AvatarURL.Present() {
		fields = append(fields, "avatar_url")
	}
	if len(fields) == 0 {
		return
	}

	sink := normalizeActivitySink(h.activitySink)
	_ = sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventProfileUpdated,
		Actor:      ActorRef{Type: "user", ID: user.ID.String()},
		UserID:     user.ID.String(),
		Metadata:   map[string]any{"fields": fields},
		OccurredAt: time.Now(),
	})
}
