package service

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"smsrelay/internal/auth"
	"smsrelay/internal/model"
	"smsrelay/internal/repo"
)

// AuthService validates phone+password pairs and issues signed identity
// tokens. Login never reveals whether the phone or the password was wrong.
type AuthService struct {
	users  repo.UserRepository
	tokens *auth.JWTManager
}

func NewAuthService(users repo.UserRepository, tokens *auth.JWTManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Login(ctx context.Context, phone, password string) (*model.User, string, error) {
	if phone == "" || password == "" {
		return nil, "", ErrInvalidInput
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Phone, user.Role)
	if err != nil {
		return nil, "", err
	}

	slog.Info("login", "phone", user.Phone, "role", user.Role)
	return user, token, nil
}

func (s *AuthService) Register(ctx context.Context, phone, password, name string) (*model.User, error) {
	if phone == "" || password == "" || name == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id, err := s.users.Create(ctx, phone, string(hashed), name)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "phone", phone)
	return &model.User{ID: id, Phone: phone, Name: name, Role: model.RoleUser}, nil
}
