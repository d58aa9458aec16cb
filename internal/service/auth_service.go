package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shopcore/internal/auth"
	"shopcore/internal/config"
	"shopcore/internal/errors"
	"shopcore/internal/mail"
	"shopcore/internal/model"
	"shopcore/internal/repository"
)

const bcryptCost = 10

// verificationTokenTTL bounds how long the emailed verification link stays valid.
const verificationTokenTTL = 48 * time.Hour

// AuthService handles registration, login and token lifecycle.
type AuthService interface {
	Register(ctx context.Context, firstName, lastName, email, password, phone string) (*model.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	mailer     *mail.Dispatcher
	cfg        *config.Config
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	mailer *mail.Dispatcher,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		mailer:     mailer,
		cfg:        cfg,
	}
}

// Register creates a customer account with a hashed password and queues the
// verification mail.
func (s *authService) Register(ctx context.Context, firstName, lastName, email, password, phone string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, errors.ErrEmailExists
	}
	if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	expires := time.Now().Add(verificationTokenTTL)

	user := &model.User{
		FirstName:           firstName,
		LastName:            lastName,
		Email:               email,
		PasswordHash:        string(hashedPassword),
		Phone:               phone,
		Role:                model.RoleUser,
		IsActive:            true,
		VerificationToken:   token,
		VerificationExpires: &expires,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.mailer.Enqueue(mail.Verification(user.Email, s.cfg.FrontendURL, token))
	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error) {
	user, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", "", nil, errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, errors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", nil, errors.ErrAccountDisabled
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// RefreshToken validates a refresh token against the token store and issues
// a new access token with the user's current role.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return "", errors.ErrInvalidToken
	}

	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return "", errors.ErrInvalidToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, tokenID)
	if err != nil {
		return "", errors.ErrInvalidToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", errors.ErrInvalidToken
	}

	// Re-read the user so a role change or deactivation takes effect at
	// the next refresh, not at the next login.
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", errors.ErrInvalidToken
	}
	if !user.IsActive {
		return "", errors.ErrAccountDisabled
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return errors.ErrInvalidToken
	}
	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
