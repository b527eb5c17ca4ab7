package auth

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// APIController serves the JSON user-management surface: login plus CRUD over
// user records. Authorization is enforced per route: creating, updating, and
// deleting require the admin role; any authenticated identity may list, and a
// single-record read admits admins or the record's owner.
type APIController struct {
	Debug        bool
	Logger       Logger
	Store        Users
	Auther       *HTTPAuth
	ContextKey   string
	ErrorHandler router.ErrorHandler

	// LoginLimiter, when set, throttles the login route on top of any
	// router-level limits.
	LoginLimiter router.MiddlewareFunc
}

type APIControllerOption func(*APIController) *APIController

func WithAPILogger(l Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithAPIStore(store Users) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Store = store
		return c
	}
}

func WithAPIAuther(auther *HTTPAuth) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Auther = auther
		return c
	}
}

func WithAPIDebug(debug bool) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Debug = debug
		return c
	}
}

func WithAPILoginLimiter(mw router.MiddlewareFunc) APIControllerOption {
	return func(c *APIController) *APIController {
		c.LoginLimiter = mw
		return c
	}
}

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger:     defLogger{},
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Store == nil {
		panic("Missing Users store in API controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuth in API controller...")
	}

	if c.ErrorHandler == nil {
		// Propagate so the ErrorBoundary writes the response and the rate
		// limiter can tell failed requests from successful ones.
		c.ErrorHandler = func(ctx router.Context, err error) error {
			return err
		}
	}

	if key := c.Auther.cfg.GetContextKey(); key != "" {
		c.ContextKey = key
	}

	return c
}

// RegisterAPIRoutes mounts the JSON API on the given router.
func RegisterAPIRoutes[T any](app router.Router[T], opts ...APIControllerOption) *APIController {
	controller := NewAPIController(opts...)

	authErrs := controller.Auther.MakeAPIAuthErrorHandler()
	protected := controller.Auther.ProtectedRoute("", authErrs)
	adminOnly := controller.Auther.AdminOnly(authErrs)

	if controller.LoginLimiter != nil {
		app.Post("/api/login", controller.LoginPost, controller.LoginLimiter).
			SetName("api.login.post")
	} else {
		app.Post("/api/login", controller.LoginPost).
			SetName("api.login.post")
	}

	app.Get("/api/users", controller.UsersList, protected).
		SetName("api.users.list")
	app.Post("/api/users", controller.UserCreate, adminOnly).
		SetName("api.users.create")

	app.Get("/api/users/:id", controller.UserShow, protected).
		SetName("api.users.show")
	app.Put("/api/users/:id", controller.UserUpdate, adminOnly).
		SetName("api.users.update")
	app.Delete("/api/users/:id", controller.UserDelete, adminOnly).
		SetName("api.users.delete")

	return controller
}

// UserView is the serializable projection of a user record. The password hash
// never leaves the store layer.
type UserView struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

func NewUserView(u *User) UserView {
	return UserView{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// LoginResponse carries the signed token plus the safe identity fields.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// APILoginRequest is the login payload.
type APILoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r APILoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r APILoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r APILoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *APIController) LoginPost(ctx router.Context) error {
	payload := new(APILoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, badPayloadError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, validationError(err))
	}

	if a.Debug {
		fmt.Println("======= API LOGIN =======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	token, identity, err := a.Auther.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User: UserView{
			ID:    identity.ID(),
			Name:  identity.Name(),
			Email: identity.Email(),
			Role:  identity.Role(),
		},
	})
}

func (a *APIController) UsersList(ctx router.Context) error {
	users, err := a.Store.ListActive(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}

	return ctx.JSON(http.StatusOK, views)
}

func (a *APIController) UserShow(ctx router.Context) error {
	id := int64(ctx.ParamsInt("id", 0))
	if id <= 0 {
		return a.ErrorHandler(ctx, invalidIDError())
	}

	identity, err := RouterIdentity(ctx, a.ContextKey)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := CanReadUser(identity, id); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Store.FindByID(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, NewUserView(user))
}

// CreateUserRequest is the admin payload for adding a user.
type CreateUserRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Role     string `form:"role" json:"role"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(4, 100)),
		validation.Field(&r.Role, validation.In(roleValues()...)),
	)
}

func (a *APIController) UserCreate(ctx router.Context) error {
	payload := new(CreateUserRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, badPayloadError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, validationError(err))
	}

	role := RoleUser
	if payload.Role != "" {
		parsed, ok := ParseRole(payload.Role)
		if !ok {
			return a.ErrorHandler(ctx, validationError(fmt.Errorf("unknown role %q", payload.Role)))
		}
		role = parsed
	}

	user, err := a.Store.Create(ctx.Context(), UserData{
		Name:     payload.Name,
		Email:    payload.Email,
		Role:     role,
		Password: payload.Password,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Logger.Info("user created", "id", user.ID, "email", user.Email)

	return ctx.JSON(http.StatusCreated, NewUserView(user))
}

// UpdateUserRequest carries a partial update; absent fields stay untouched.
type UpdateUserRequest struct {
	Name     *string `form:"name" json:"name"`
	Email    *string `form:"email" json:"email"`
	Role     *string `form:"role" json:"role"`
	Password *string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Password, validation.Length(4, 100)),
		validation.Field(&r.Role, validation.In(roleValues()...)),
	)
}

func (a *APIController) UserUpdate(ctx router.Context) error {
	id := int64(ctx.ParamsInt("id", 0))
	if id <= 0 {
		return a.ErrorHandler(ctx, invalidIDError())
	}

	payload := new(UpdateUserRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, badPayloadError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, validationError(err))
	}

	update := UserUpdate{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	}

	if payload.Role != nil {
		parsed, ok := ParseRole(*payload.Role)
		if !ok {
			return a.ErrorHandler(ctx, validationError(fmt.Errorf("unknown role %q", *payload.Role)))
		}
		update.Role = &parsed
	}

	if update.Empty() {
		return a.ErrorHandler(ctx, errors.New("no fields to update", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithTextCode("EMPTY_UPDATE"))
	}

	user, err := a.Store.Update(ctx.Context(), id, update)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Logger.Info("user updated", "id", user.ID)

	return ctx.JSON(http.StatusOK, NewUserView(user))
}

func (a *APIController) UserDelete(ctx router.Context) error {
	id := int64(ctx.ParamsInt("id", 0))
	if id <= 0 {
		return a.ErrorHandler(ctx, invalidIDError())
	}

	if id == PrimaryAdminID {
		return a.ErrorHandler(ctx, ErrPrimaryAdminImmutable)
	}

	if err := a.Store.SoftDelete(ctx.Context(), id); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Logger.Info("user deleted", "id", id)

	return ctx.JSON(http.StatusOK, map[string]any{
		"status": "deleted",
		"id":     id,
	})
}

func roleValues() []any {
	roles := GetAllRoles()
	out := make([]any, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func invalidIDError() *errors.Error {
	return errors.New("user id must be a positive integer", errors.CategoryBadInput).
		WithCode(errors.CodeBadRequest).
		WithTextCode("INVALID_ID")
}

func badPayloadError(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request payload").
		WithCode(errors.CodeBadRequest).
		WithTextCode("BAD_PAYLOAD")
}

func validationError(err error) *errors.Error {
	return errors.New("invalid request payload", errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithTextCode("VALIDATION").
		WithMetadata(FormatValidationErrorToMap(err))
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]any {
	out := map[string]any{}
	if err == nil {
		return out
	}

	var ve validation.Errors
	if errors.As(err, &ve) {
		for field, ferr := range ve {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
