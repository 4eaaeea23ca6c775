package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidPresence = "INVALID_PRESENCE_STATUS"

// ErrInvalidPresence is returned when a requested status is not one of the
// four presence states.
var ErrInvalidPresence = goerrors.New("invalid presence status", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidPresence).
	WithCode(goerrors.CodeBadRequest)

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor ActorRef
	User  *User
	From  UserStatus
	To    UserStatus
	Meta  TransitionMetadata
}

// TransitionHook is executed before or after a transition persists.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// PresenceMachine drives the account presence lifecycle. The graph is fully
// connected: any of the four states can be entered from any other. Entering
// offline is the only transition with a side effect - it stamps LastSeen.
type PresenceMachine interface {
	Transition(ctx context.Context, actor ActorRef, user *User, target UserStatus, opts ...TransitionOption) (*User, error)
	CurrentStatus(user *User) UserStatus
}

// PresenceMachineOption customizes machine construction.
type PresenceMachineOption func(*presenceMachine)

// WithPresenceClock injects a custom clock (useful for tests).
func WithPresenceClock(clock func() time.Time) PresenceMachineOption {
	return func(pm *presenceMachine) {
		if clock != nil {
			pm.now = clock
		}
	}
}

// WithPresenceActivitySink sets the ActivitySink used to publish presence events.
func WithPresenceActivitySink(sink ActivitySink) PresenceMachineOption {
	return func(pm *presenceMachine) {
		pm.activitySink = normalizeActivitySink(sink)
	}
}

// WithPresenceLogger overrides the logger used for sink failures.
func WithPresenceLogger(logger Logger) PresenceMachineOption {
	return func(pm *presenceMachine) {
		if logger != nil {
			pm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewPresenceMachine returns the default implementation backed by the provided repository.
func NewPresenceMachine(users Users, opts ...PresenceMachineOption) PresenceMachine {
	pm := &presenceMachine{
		users:        users,
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(pm)
		}
	}

	return pm
}

type presenceMachine struct {
	users        Users
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

type transitionOptions struct {
	metadata    TransitionMetadata
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (pm *presenceMachine) Transition(ctx context.Context, actor ActorRef, user *User, target UserStatus, opts ...TransitionOption) (*User, error) {
	if user == nil {
		return nil, ErrInvalidPresence.WithMetadata(map[string]any{
			"target": target,
			"reason": "user is nil",
		})
	}

	user.EnsureStatus()
	from := user.Status

	if !ValidUserStatus(target) {
		return nil, ErrInvalidPresence.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := pm.buildTransitionOptions(opts...)

	ctxData := TransitionContext{
		Actor: actor,
		User:  user,
		From:  from,
		To:    target,
		Meta:  options.cloneMetadata(),
	}

	if err := pm.runHooks(ctx, options.beforeHooks, ctxData); err != nil {
		return nil, err
	}

	statusOpts, lastSeen := pm.buildStatusOptions(target)

	updated, err := pm.users.UpdatePresence(ctx, user.ID, target, statusOpts...)
	if err != nil {
		return nil, err
	}

	pm.applyUpdates(user, updated, target, lastSeen)

	if err := pm.runHooks(ctx, options.afterHooks, ctxData); err != nil {
		return nil, err
	}

	pm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventPresenceChanged,
		Actor:      actor,
		UserID:     user.ID.String(),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   pm.transitionMetadata(ctxData.Meta),
	})

	return user, nil
}

func (pm *presenceMachine) CurrentStatus(user *User) UserStatus {
	if user == nil {
		return ""
	}
	user.EnsureStatus()
	return user.Status
}

func (pm *presenceMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

func (pm *presenceMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// buildStatusOptions stamps LastSeen only when the account goes offline;
// every other transition leaves LastSeen untouched.
func (pm *presenceMachine) buildStatusOptions(target UserStatus) ([]StatusUpdateOption, *time.Time) {
	if target != UserStatusOffline {
		return nil, nil
	}

	now := pm.now()
	return []StatusUpdateOption{WithLastSeen(&now)}, &now
}

func (pm *presenceMachine) applyUpdates(user, updated *User, target UserStatus, lastSeen *time.Time) {
	if updated != nil {
		if updated.Status != "" {
			user.Status = updated.Status
		} else {
			user.Status = target
		}
		if updated.LastSeen != nil {
			user.LastSeen = updated.LastSeen
		} else if lastSeen != nil {
			user.LastSeen = lastSeen
		}
		return
	}

	user.Status = target
	if lastSeen != nil {
		user.LastSeen = lastSeen
	}
}

func (pm *presenceMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = pm.now()
	}

	sink := normalizeActivitySink(pm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		pm.logger.Warn("presence machine activity sink error: %v", err)
	}
}

func (pm *presenceMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
