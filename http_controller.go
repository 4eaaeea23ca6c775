package accounts

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// AccountsControllerRoutes holds the route paths the controller mounts.
type AccountsControllerRoutes struct {
	Register string
	Login    string
	Refresh  string
	Me       string
	Status   string
	Health   string
}

// AccountsController serves the JSON API for registration, the token
// lifecycle, profile access, and presence updates.
type AccountsController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AccountsControllerRoutes
	Auther       *RouteAuthenticator
	Presence     PresenceMachine
	ActivitySink ActivitySink
	ErrorHandler router.ErrorHandler
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		ActivitySink: noopActivitySink{},
		Routes: &AccountsControllerRoutes{
			Register: "/auth/register",
			Login:    "/auth/login",
			Refresh:  "/auth/refresh",
			Me:       "/users/me",
			Status:   "/users/me/status",
			Health:   "/health",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in accounts controller...")
	}

	if c.Presence == nil {
		c.Presence = NewPresenceMachine(c.Repo.Users(), WithPresenceActivitySink(c.ActivitySink))
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.ActivitySink = normalizeActivitySink(sink)
		return c
	}
}

func WithControllerPresence(machine PresenceMachine) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Presence = machine
		return c
	}
}

func WithControllerDebug(debug bool) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Debug = debug
		return c
	}
}

// RegisterAuthRoutes mounts the public endpoints: registration, login, token
// refresh, and the health probe.
func RegisterAuthRoutes[T any](app router.Router[T], controller *AccountsController) {
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh")

	app.Get(controller.Routes.Health, controller.Health).
		SetName("health")
}

// RegisterUserRoutes mounts the authenticated endpoints behind the access
// token middleware.
func RegisterUserRoutes[T any](app router.Router[T], controller *AccountsController, cfg Config) {
	protected := controller.Auther.ProtectedRoute(cfg, controller.Auther.MakeAuthErrorHandler(false))

	app.Get(controller.Routes.Me, controller.MeShow, protected).
		SetName("users.me.get")

	app.Patch(controller.Routes.Me, controller.MePatch, protected).
		SetName("users.me.patch")

	app.Put(controller.Routes.Status, controller.StatusPut, protected).
		SetName("users.me.status")
}

// RegistrationCreatePayload is the registration request body
type RegistrationCreatePayload struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required,
			validation.Length(3, 50),
			validation.Match(usernamePattern),
		),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.DisplayName, validation.Length(1, 100)),
	)
}

func (a *AccountsController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{
				"message":    "validation failed",
				"validation": FormatValidationErrorToMap(err),
			},
		})
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===============================")
	}

	var created *User
	req := RegisterUserMessage{
		Username:    payload.Username,
		Email:       payload.Email,
		Password:    payload.Password,
		DisplayName: payload.DisplayName,
		AvatarURL:   payload.AvatarURL,
	}

	registerUser := NewRegisterUserHandler(a.Repo).WithActivitySink(a.ActivitySink)
	registerUser.OnResponse = func(user *User) {
		created = user
	}

	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, userResponse(created))
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountsController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{
				"message":    "validation failed",
				"validation": FormatValidationErrorToMap(err),
			},
		})
	}

	pair, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// RefreshRequest carries the refresh token being exchanged.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AccountsController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("refresh parse payload: %v", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{
				"message":    "validation failed",
				"validation": FormatValidationErrorToMap(err),
			},
		})
	}

	pair, err := a.Auther.Refresh(ctx, payload.RefreshToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AccountsController) MeShow(ctx router.Context) error {
	user, ok := GetRouterUser(ctx, "")
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenInvalid)
	}

	return ctx.JSON(router.StatusOK, userResponse(user))
}

func (a *AccountsController) MePatch(ctx router.Context) error {
	user, ok := GetRouterUser(ctx, "")
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenInvalid)
	}

	patch := new(ProfilePatch)
	if err := ctx.Bind(patch); err != nil {
		a.Logger.Error("profile patch parse payload: %v", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := validateProfilePatch(*patch); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{
				"message":    "validation failed",
				"validation": FormatValidationErrorToMap(err),
			},
		})
	}

	var updated *User
	handler := NewUpdateProfileHandler(a.Repo).WithActivitySink(a.ActivitySink)
	handler.OnResponse = func(user *User) {
		updated = user
	}

	if err := handler.Execute(ctx.Context(), UpdateProfileMessage{
		UserID: user.ID,
		Patch:  *patch,
	}); err != nil {
		a.Logger.Error("profile patch error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, userResponse(updated))
}

// StatusUpdatePayload carries the requested presence status.
type StatusUpdatePayload struct {
	Status string `json:"status"`
}

// Validate will run validation rules
func (r StatusUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.Required,
			validation.In(
				UserStatusOnline,
				UserStatusOffline,
				UserStatusAway,
				UserStatusBusy,
			),
		),
	)
}

func (a *AccountsController) StatusPut(ctx router.Context) error {
	user, ok := GetRouterUser(ctx, "")
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenInvalid)
	}

	payload := new(StatusUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("status update parse payload: %v", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{
				"message":    "validation failed",
				"validation": FormatValidationErrorToMap(err),
			},
		})
	}

	actor := ActorRef{Type: "user", ID: user.ID.String()}
	updated, err := a.Presence.Transition(ctx.Context(), actor, user, UserStatus(payload.Status))
	if err != nil {
		a.Logger.Error("status update error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, userResponse(updated))
}

func (a *AccountsController) Health(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "ok",
	})
}

func validateProfilePatch(patch ProfilePatch) error {
	verrs := validation.Errors{}

	if patch.DisplayName.Present() && !patch.DisplayName.IsNull() {
		if err := validation.Validate(patch.DisplayName.Value, validation.Required, validation.Length(1, 100)); err != nil {
			verrs["display_name"] = err
		}
	}

	if patch.AvatarURL.Present() && !patch.AvatarURL.IsNull() {
		if err := validation.Validate(patch.AvatarURL.Value, validation.Length(0, 500), is.URL); err != nil {
			verrs["avatar_url"] = err
		}
	}

	if len(verrs) == 0 {
		return nil
	}

	return verrs
}

// userResponse shapes the public view of an account. PasswordHash never
// leaves the model layer but the shape here is explicit anyway.
func userResponse(user *User) map[string]any {
	if user == nil {
		return nil
	}

	var lastSeen *time.Time
	if user.LastSeen != nil {
		ls := *user.LastSeen
		lastSeen = &ls
	}

	return map[string]any{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"status":       user.Status,
		"last_seen":    lastSeen,
		"created_at":   user.CreatedAt,
		"updated_at":   user.UpdatedAt,
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	return c.JSON(statusFromError(richErr), map[string]any{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}
