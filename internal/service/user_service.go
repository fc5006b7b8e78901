package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"user-service/internal/domain"
	"user-service/internal/mail"
	"user-service/internal/repository"
)

// DefaultMailSubject is used for the temporary-password e-mail.
const DefaultMailSubject = "Your access to the system"

// RegisterInput describes a person to enrol.
type RegisterInput struct {
	FirstName      string
	LastFirstName  string
	LastSecondName string
	Mail           string
	Phone          string
	CI             string
	Role           string
}

// UpdateInput carries profile changes; nil fields are left untouched.
type UpdateInput struct {
	FirstName      *string
	LastFirstName  *string
	LastSecondName *string
	Mail           *string
	Phone          *string
	CI             *string
	Role           *string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput, actorID int64) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, in UpdateInput, actorID int64) (*domain.User, error)
	ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error
	SoftDelete(ctx context.Context, id, actorID int64) error
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	CanPerformAction(user *domain.User, action string) bool
}

// UserServiceConfig wires the collaborators of the user service.
type UserServiceConfig struct {
	Users     repository.UserRepository
	Hasher    PasswordHasher
	Policy    PasswordPolicy
	Tokens    TokenService
	Mailer    mail.Sender
	Validator *RecordValidator
	Logger    logrus.FieldLogger
	Now       func() time.Time

	GeneratedPasswordLength int
	MailSubject             string
}

type userService struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	names     UsernameGenerator
	auth      Authenticator
	authz     Authorizer
	passwords PasswordChanger
	tokens    TokenService
	mailer    mail.Sender
	validator *RecordValidator
	logger    logrus.FieldLogger
	now       func() time.Time

	generatedLength int
	mailSubject     string
}

func NewUserService(cfg UserServiceConfig) (UserService, error) {
	if cfg.Users == nil || cfg.Hasher == nil || cfg.Tokens == nil {
		return nil, errors.New("user service: repository, hasher and token service are required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	mailer := cfg.Mailer
	if mailer == nil {
		mailer = mail.NewLogSender(logger)
	}
	validator := cfg.Validator
	if validator == nil {
		validator = NewRecordValidator()
	}
	subject := cfg.MailSubject
	if subject == "" {
		subject = DefaultMailSubject
	}

	auth, err := NewAuthenticator(cfg.Users, cfg.Hasher)
	if err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}

	return &userService{
		users:           cfg.Users,
		hasher:          cfg.Hasher,
		auth:            auth,
		authz:           NewAuthorizer(),
		passwords:       NewPasswordChanger(cfg.Users, cfg.Hasher, cfg.Policy, now),
		tokens:          cfg.Tokens,
		mailer:          mailer,
		validator:       validator,
		logger:          logger,
		now:             now,
		generatedLength: cfg.GeneratedPasswordLength,
		mailSubject:     subject,
	}, nil
}

func (s *userService) Register(ctx context.Context, in RegisterInput, actorID int64) (*domain.User, error) {
	if strings.TrimSpace(in.Mail) == "" {
		return nil, domain.ErrMailRequired
	}

	existing, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	usernames := make([]string, len(existing))
	for i := range existing {
		usernames[i] = existing[i].Username
	}

	role, ok := domain.ParseRole(in.Role)
	if !ok {
		role = domain.Role(strings.TrimSpace(in.Role))
	}
	base := s.names.GenerateBase(in.FirstName, in.LastFirstName, in.LastSecondName)
	user := domain.NewUser(domain.NewUserParams{
		FirstName:      in.FirstName,
		LastFirstName:  in.LastFirstName,
		LastSecondName: in.LastSecondName,
		Mail:           in.Mail,
		Phone:          in.Phone,
		CI:             in.CI,
		Role:           role,
		Username:       s.names.EnsureUnique(base, usernames),
		ActorID:        actorID,
		Now:            s.now().UTC(),
	})

	if err := s.validator.Validate(user); err != nil {
		return nil, err
	}
	if err := checkContactUniqueness(existing, user); err != nil {
		return nil, err
	}

	plain, err := s.hasher.GenerateRandomPassword(s.generatedLength)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.HashPassword(plain)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"actor_id": actorID,
	}).Info("user registered")

	if err := s.mailer.Send(ctx, user.Mail, s.mailSubject, welcomeBody(user, plain)); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("send temporary password mail")
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	all, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(all))
	for i := range all {
		out = append(out, *sanitizeUser(&all[i]))
	}
	return out, nil
}

func (s *userService) Update(ctx context.Context, id int64, in UpdateInput, actorID int64) (*domain.User, error) {
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setTrimmed(&current.FirstName, in.FirstName)
	setTrimmed(&current.LastFirstName, in.LastFirstName)
	setTrimmed(&current.Mail, in.Mail)
	setTrimmed(&current.Phone, in.Phone)
	setTrimmed(&current.CI, in.CI)
	if in.LastSecondName != nil {
		if v := strings.TrimSpace(*in.LastSecondName); v != "" {
			current.LastSecondName = &v
		} else {
			current.LastSecondName = nil
		}
	}
	if in.Role != nil {
		if role, ok := domain.ParseRole(*in.Role); ok {
			current.Role = role
		} else {
			current.Role = domain.Role(strings.TrimSpace(*in.Role))
		}
	}
	current.UpdatedBy = actorID
	current.UpdatedAt = s.now().UTC()

	existing, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkContactUniqueness(existing, current); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(current); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, current); err != nil {
		return nil, err
	}
	return sanitizeUser(current), nil
}

func (s *userService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	if err := s.passwords.ChangePassword(ctx, id, currentPassword, newPassword); err != nil {
		return err
	}
	s.logger.WithField("user_id", id).Info("password changed")
	return nil
}

func (s *userService) SoftDelete(ctx context.Context, id, actorID int64) error {
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	current.IsDeleted = true
	current.UpdatedBy = actorID
	current.UpdatedAt = s.now().UTC()
	if err := s.users.Delete(ctx, current); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "actor_id": actorID}).Info("user deleted")
	return nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// Login authenticates and issues a bearer token for the user.
func (s *userService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *userService) CanPerformAction(user *domain.User, action string) bool {
	return s.authz.CanPerformAction(user, action)
}

// checkContactUniqueness rejects a CI or mail already used by another record,
// deleted ones included.
func checkContactUniqueness(existing []domain.User, user *domain.User) error {
	for i := range existing {
		other := &existing[i]
		if other.ID == user.ID && user.ID != 0 {
			continue
		}
		if strings.EqualFold(other.CI, user.CI) {
			return domain.ErrCIExists
		}
		if other.Mail != "" && strings.EqualFold(other.Mail, user.Mail) {
			return domain.ErrMailExists
		}
	}
	return nil
}

func welcomeBody(user *domain.User, plain string) string {
	return fmt.Sprintf(`Hello %s,

Your account has been created.
Username: %s
Temporary password: %s

For security, change the password after signing in.`, user.FirstName, user.Username, plain)
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	cp := *user
	cp.PasswordHash = ""
	return &cp
}
