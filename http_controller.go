package crmauth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the JSON auth API. Session routes only need a
// valid token; management routes are additionally gated by role.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protect := controller.HTTP.ProtectedRoute()
	adminOnly := controller.HTTP.RequireRoles(RoleAdmin)
	managersUp := controller.HTTP.RequireRoles(RoleAdmin, RoleSalesManager)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(controller.Routes.Logout, protect(controller.LogoutPost)).
		SetName("auth.logout")

	app.Post(controller.Routes.LogoutBeacon, controller.LogoutBeaconPost).
		SetName("auth.logout-beacon")

	app.Post(controller.Routes.Heartbeat, protect(controller.HeartbeatPost)).
		SetName("auth.heartbeat")

	app.Get(controller.Routes.ValidateSession, protect(controller.ValidateSessionGet)).
		SetName("auth.validate-session")

	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).
		SetName("auth.reset-password")

	app.Post(controller.Routes.RecoverAccount, controller.RecoverAccountPost).
		SetName("auth.recover-account")

	app.Post(controller.Routes.ChangePassword, protect(controller.ChangePasswordPost)).
		SetName("auth.change-password")

	app.Post(controller.Routes.Register, protect(managersUp(controller.RegisterPost))).
		SetName("users.register")

	app.Get(controller.Routes.Users, protect(managersUp(controller.UsersList))).
		SetName("users.list")

	app.Post(controller.Routes.UsersByRole, protect(adminOnly(controller.UsersByRole))).
		SetName("users.by-role")

	app.Put(controller.Routes.UpdateUser, protect(adminOnly(controller.UpdateUser))).
		SetName("users.update")

	app.Delete(controller.Routes.DeleteUser, protect(adminOnly(controller.DeleteUser))).
		SetName("users.delete")
}

type AuthControllerRoutes struct {
	Login           string
	Logout          string
	LogoutBeacon    string
	Heartbeat       string
	ValidateSession string
	Register        string
	Users           string
	UsersByRole     string
	ChangePassword  string
	ResetPassword   string
	RecoverAccount  string
	UpdateUser      string
	DeleteUser      string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       SessionManager
	HTTP         *RouteAuthenticator
	Mailer       Mailer
	Cascade      *CascadeEngine
	ErrorHandler func(c router.Context, err error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: jsonErrHandler,
		Routes: &AuthControllerRoutes{
			Login:           "/login",
			Logout:          "/logout",
			LogoutBeacon:    "/logout-beacon",
			Heartbeat:       "/heartbeat",
			ValidateSession: "/validate-session",
			Register:        "/register",
			Users:           "/users",
			UsersByRole:     "/usersByRole",
			ChangePassword:  "/change-password",
			ResetPassword:   "/reset_password",
			RecoverAccount:  "/send_recovery_email",
			UpdateUser:      "/updateUser",
			DeleteUser:      "/deleteUser",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing SessionManager in auth controller...")
	}

	if c.HTTP == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.Cascade == nil {
		c.Cascade = NewCascadeEngine(c.Repo.Teams(), c.Repo.Users())
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther SessionManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerHTTP(http *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.HTTP = http
		return c
	}
}

func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
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

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "failed to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	token, err := a.Auther.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
	})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.HTTP.cfg.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Auther.Logout(ctx.Context(), session); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "logged out",
	})
}

// LogoutBeaconRequest payload
type LogoutBeaconRequest struct {
	UserID string `form:"user_id" json:"user_id"`
}

// LogoutBeaconPost records a logout sent from a page unload beacon. The
// beacon sender cannot act on a response, so this always answers 200.
func (a *AuthController) LogoutBeaconPost(ctx router.Context) error {
	payload := new(LogoutBeaconRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Warn("logout beacon parse failed", "error", err)
	}

	if payload.UserID != "" {
		a.Auther.LogoutBeacon(ctx.Context(), payload.UserID)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "ok",
	})
}

func (a *AuthController) HeartbeatPost(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.HTTP.cfg.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Auther.Heartbeat(ctx.Context(), session); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "ok",
	})
}

func (a *AuthController) ValidateSessionGet(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.HTTP.cfg.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"uid":      session.GetUserID(),
		"email":    session.GetEmail(),
		"name":     session.GetName(),
		"roleId":   session.GetRoleID(),
		"roleName": session.GetRoleName(),
		"expires":  session.GetExpiration(),
	})
}

// RegisterUserRequest payload
type RegisterUserRequest struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
	Phone string `form:"phone_number" json:"phone_number"`
	Role  string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r RegisterUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Role, validation.Required),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterUserRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "failed to parse registration payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload").
			WithCode(errors.CodeBadRequest))
	}

	var res *RegisterUserResponse

	req := RegisterUserMessage{
		Name:  payload.Name,
		Email: payload.Email,
		Phone: payload.Phone,
		Role:  payload.Role,
		OnResponse: func(resp *RegisterUserResponse) {
			res = resp
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Mailer).WithLogger(a.Logger)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= USER REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("============================")
	}

	body := map[string]any{
		"user": res.User,
	}
	if res.MailError != nil {
		body["mail_error"] = res.MailError.Error()
	}

	return ctx.JSON(router.StatusCreated, body)
}

func (a *AuthController) UsersList(ctx router.Context) error {
	users, err := a.Repo.Users().ListAll(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "failed to list users"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"users": users,
	})
}

// UsersByRoleRequest payload
type UsersByRoleRequest struct {
	Role string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r UsersByRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required),
	)
}

func (a *AuthController) UsersByRole(ctx router.Context) error {
	payload := new(UsersByRoleRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "failed to parse payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid payload").
			WithCode(errors.CodeBadRequest))
	}

	role, ok := ParseRoleName(payload.Role)
	if !ok {
		return a.ErrorHandler(ctx, errors.New("invalid role", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"role": payload.Role}))
	}

	users, err := a.Repo.Users().ListByRole(ctx.Context(), role)
	if err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryInternal, "failed to list users by role"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"users": users,
	})
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

func (a *AuthController) ChangePasswordPost(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.HTTP.cfg.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(ChangePasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "failed to parse payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid payload").
			WithCode(errors.CodeBadRequest))
	}

	req := ChangePasswordMessage{
		UserID:          session.GetUserID(),
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}

	changePassword := NewChangePasswordHandler(a.Repo).WithLogger(a.Logger)
	if err := changePassword.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("change password error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "password changed",
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Email       string `form:"email" json:"email"`
	Role        string `form:"role" json:"role"`
	NewPassword string `form:"new_password" json:"new_password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Role, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "failed to parse payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid payload").
			WithCode(errors.CodeBadRequest))
	}

	req := ResetPasswordMessage{
		Email:       payload.Email,
		Role:        payload.Role,
		NewPassword: payload.NewPassword,
	}

	resetPassword := NewResetPasswordHandler(a.Repo).WithLogger(a.Logger)
	if err := resetPassword.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("reset password error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "password reset",
	})
}

// RecoverAccountRequest payload
type RecoverAccountRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r RecoverAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) RecoverAccountPost(ctx router.Context) error {
	payload := new(RecoverAccountRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "failed to parse payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid payload").
			WithCode(errors.CodeBadRequest))
	}

	req := SendRecoveryEmailMessage{
		Email: payload.Email,
	}

	recoverAccount := NewSendRecoveryEmailHandler(a.Repo, a.Mailer).WithLogger(a.Logger)
	if err := recoverAccount.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("account recovery error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "recovery email sent",
	})
}

// UpdateUserRequest payload
type UpdateUserRequest struct {
	UserID string `form:"user_id" json:"user_id"`
	Name   string `form:"name" json:"name"`
	Email  string `form:"email" json:"email"`
	Phone  string `form:"phone_number" json:"phone_number"`
	Role   string `form:"role" json:"role"`
	Status string `form:"status" json:"status"`
}

// Validate will run validation rules
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Role, validation.Required),
		validation.Field(&r.Status, validation.Required, validation.In(UserStatusActive, UserStatusInactive)),
	)
}

func (a *AuthController) UpdateUser(ctx router.Context) error {
	payload := new(UpdateUserRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "failed to parse payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid payload").
			WithCode(errors.CodeBadRequest))
	}

	var res *UpdateUserResponse

	req := UpdateUserMessage{
		UserID: payload.UserID,
		Name:   payload.Name,
		Email:  payload.Email,
		Phone:  payload.Phone,
		Role:   payload.Role,
		Status: payload.Status,
		OnResponse: func(resp *UpdateUserResponse) {
			res = resp
		},
	}

	updateUser := NewUpdateUserHandler(a.Repo, a.Cascade).WithLogger(a.Logger)
	if err := updateUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("update user error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= USER UPDATE ======")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("==========================")
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user":  res.User,
		"teams": res.Teams,
	})
}

// DeleteUserRequest payload
type DeleteUserRequest struct {
	UserID string `form:"user_id" json:"user_id"`
}

// Validate will run validation rules
func (r DeleteUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
	)
}

func (a *AuthController) DeleteUser(ctx router.Context) error {
	payload := new(DeleteUserRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "failed to parse payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid payload").
			WithCode(errors.CodeBadRequest))
	}

	var res *DeleteUserResponse

	req := DeleteUserMessage{
		UserID: payload.UserID,
		OnResponse: func(resp *DeleteUserResponse) {
			res = resp
		},
	}

	deleteUser := NewDeleteUserHandler(a.Repo, a.Cascade).WithLogger(a.Logger)
	if err := deleteUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("delete user error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	body := map[string]any{
		"message": "user deleted",
	}
	if res != nil {
		body["teams"] = res.Teams
	}

	return ctx.JSON(router.StatusOK, body)
}

func jsonErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	return c.JSON(HTTPStatus(richErr), map[string]any{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	})
}
