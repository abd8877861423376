package crmauth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// DefaultPhoneRegion is the region used to parse national phone numbers.
var DefaultPhoneRegion = "US"

type RegisterUserMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone_number"`
	Role      string `json:"role"`
	UseHashid bool   `json:"-"`

	OnResponse func(*RegisterUserResponse) `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Role, validation.Required),
	)
}

// RegisterUserResponse reports the created user. MailError is advisory: the
// user stays created even when the welcome mail could not be delivered.
type RegisterUserResponse struct {
	User      *User
	MailError error
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, mailer Mailer) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		mailer: normalizeMailer(mailer),
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
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
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	roleName, ok := ParseRoleName(strings.TrimSpace(event.Role))
	if !ok {
		return goerrors.New("invalid role", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": event.Role})
	}

	phone, err := normalizePhone(event.Phone)
	if err != nil {
		return err
	}

	tempPassword, err := GenerateTempPassword()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate temporary password")
	}

	user := &User{}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		role, err := h.repo.Roles().GetByNameTx(ctx, tx, roleName)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return goerrors.New("invalid role", goerrors.CategoryValidation).
					WithCode(goerrors.CodeBadRequest).
					WithMetadata(map[string]any{"role": roleName})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load role")
		}

		email := strings.ToLower(strings.TrimSpace(event.Email))
		if existing, err := h.repo.Users().GetByIdentifierTx(ctx, tx, email); err == nil && existing != nil {
			return ErrEmailTaken.Clone().WithMetadata(map[string]any{"email": email})
		} else if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing email")
		}

		hash, err := HashPassword(tempPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Name = strings.TrimSpace(event.Name)
		user.Email = email
		user.Phone = phone
		user.PasswordHash = hash
		user.RoleID = role.ID
		user.Role = role
		user.Status = UserStatusActive
		user.DefaultPasswordChanged = false
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
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

	// The user exists at this point; a failed welcome mail is reported but
	// does not undo the registration.
	mailErr := SendWithRetry(ctx, h.mailer, NewRegistrationMail(user.Email, user.Name, tempPassword))
	if mailErr != nil {
		h.logger.Error("registration mail delivery failed", "email", user.Email, "error", mailErr)
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{
			User:      user,
			MailError: mailErr,
		})
	}

	return nil
}

// normalizePhone validates and formats an optional phone number to E.164.
func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(phone, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"phone_number": phone})
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
