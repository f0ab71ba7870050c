package app

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lireddit/internal/model"
	"lireddit/internal/repository"
)

type ResetTokenStore interface {
	Save(ctx context.Context, token string, userID uint) error
	Consume(ctx context.Context, token string) (uint, bool, error)
}

// EmailPublisher hands an email to the outbound queue.
type EmailPublisher interface {
	Publish(ctx context.Context, email model.Email) error
}

type AuthService struct {
	userRepo    *repository.UserRepository
	tokens      ResetTokenStore
	mailer      EmailPublisher
	frontendURL string
	validate    *validator.Validate
	hashCost    int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

// UserResponse carries either field errors or the affected user.
type UserResponse struct {
	Errors []FieldError
	User   *model.User
}

func NewAuthService(userRepo *repository.UserRepository, tokens ResetTokenStore, mailer EmailPublisher, frontendURL string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		validate:    validator.New(),
		hashCost:    bcrypt.DefaultCost,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserResponse, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if errs := s.validateRegister(input); errs != nil {
		return &UserResponse{Errors: errs}, nil
	}

	existingByName, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return &UserResponse{Errors: fieldErrors("username", "username already taken")}, nil
	}

	existingByEmail, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return &UserResponse{Errors: fieldErrors("email", "email already taken")}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &UserResponse{Errors: fieldErrors("username", "username already taken")}, nil
		}
		return nil, err
	}
	return &UserResponse{User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*UserResponse, error) {
	ident := strings.TrimSpace(input.UsernameOrEmail)

	var (
		user *model.User
		err  error
	)
	if strings.Contains(ident, "@") {
		user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(ident))
	} else {
		user, err = s.userRepo.GetByUsername(ctx, ident)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &UserResponse{Errors: fieldErrors("usernameOrEmail", "that username doesn't exist")}, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return &UserResponse{Errors: fieldErrors("password", "incorrect password")}, nil
	}
	return &UserResponse{User: user}, nil
}

// ForgotPassword issues a reset token and queues the email for a known
// address. Unknown addresses are ignored silently so callers cannot probe
// which emails are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token := uuid.NewString()
	if err := s.tokens.Save(ctx, token, user.ID); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/change-password/%s", s.frontendURL, token)
	msg := model.Email{
		To:      user.Email,
		Subject: "Change password",
		HTML:    fmt.Sprintf(`<a href="%s">reset password</a>`, html.EscapeString(link)),
	}
	if s.mailer == nil {
		log.Printf("no mail publisher configured, dropping reset email for user %d", user.ID)
		return nil
	}
	if err := s.mailer.Publish(ctx, msg); err != nil {
		log.Printf("queue reset email for user %d failed: %v", user.ID, err)
	}
	return nil
}

// ChangePassword consumes a reset token and sets a new password. The token
// is taken out of the store before anything else, so concurrent calls with
// the same token cannot both succeed.
func (s *AuthService) ChangePassword(ctx context.Context, token, newPassword string) (*UserResponse, error) {
	if len(newPassword) <= 2 {
		return &UserResponse{Errors: fieldErrors("newPassword", "length must be greater than 2")}, nil
	}

	userID, ok, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &UserResponse{Errors: fieldErrors("token", "token expired")}, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &UserResponse{Errors: fieldErrors("token", "user no longer exists")}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)
	return &UserResponse{User: user}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, nil
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) validateRegister(input RegisterInput) []FieldError {
	if err := s.validate.Var(input.Email, "required,email"); err != nil {
		return fieldErrors("email", "invalid email")
	}
	if len(input.Username) <= 2 {
		return fieldErrors("username", "length must be greater than 2")
	}
	if strings.Contains(input.Username, "@") {
		return fieldErrors("username", "cannot include an @")
	}
	if len(input.Password) <= 2 {
		return fieldErrors("password", "length must be greater than 2")
	}
	return nil
}
