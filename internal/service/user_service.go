package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shopcore/internal/config"
	"shopcore/internal/errors"
	"shopcore/internal/mail"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/sync"
)

// resetTokenTTL bounds how long an emailed password reset link stays valid.
const resetTokenTTL = 1 * time.Hour

// UserService handles account state beyond authentication: email
// verification, password resets, profile reads and account erasure.
type UserService interface {
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetProfile(ctx context.Context, userID uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, firstName, lastName, phone string) (*model.User, error)
	EraseAccount(ctx context.Context, userID uint) error
	SetUserRole(ctx context.Context, userID uint, role model.Role) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	notifier SyncNotifier
	mailer   *mail.Dispatcher
	cfg      *config.Config
	logger   *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	notifier SyncNotifier,
	mailer *mail.Dispatcher,
	cfg *config.Config,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo: userRepo,
		notifier: notifier,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
	}
}

// VerifyEmail consumes a verification token. Tokens are single use; the
// stored token is cleared on success.
func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrInvalidToken
		}
		return err
	}
	if user.VerificationExpires == nil || time.Now().After(*user.VerificationExpires) {
		return errors.ErrTokenExpired
	}

	user.IsVerified = true
	user.VerificationToken = ""
	user.VerificationExpires = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.notifier.Notify(sync.Change{Kind: sync.UserChanged, ID: user.ID})
	return nil
}

// RequestPasswordReset issues a reset token. An unknown email is reported as
// success so the endpoint cannot be used to probe for accounts.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := randomToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	expires := time.Now().Add(resetTokenTTL)
	user.ResetToken = token
	user.ResetExpires = &expires
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.mailer.Enqueue(mail.PasswordReset(user.Email, s.cfg.FrontendURL, token))
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *userService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrInvalidToken
		}
		return err
	}
	if user.ResetExpires == nil || time.Now().After(*user.ResetExpires) {
		return errors.ErrTokenExpired
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	user.ResetToken = ""
	user.ResetExpires = nil
	return s.userRepo.Update(ctx, user)
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, firstName, lastName, phone string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.Phone = phone
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.notifier.Notify(sync.Change{Kind: sync.UserChanged, ID: user.ID})
	return user, nil
}

// EraseAccount hard-deletes the user together with their orders, items and
// invoices, then removes the mirrored document.
func (s *userService) EraseAccount(ctx context.Context, userID uint) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrUserNotFound
		}
		return err
	}
	if err := s.userRepo.EraseWithOrders(ctx, userID); err != nil {
		return err
	}
	s.notifier.Notify(sync.Change{Kind: sync.UserDeleted, ID: userID})
	s.logger.Info("account erased", zap.Uint("user_id", userID))
	return nil
}

// SetUserRole is the admin-only role assignment.
func (s *userService) SetUserRole(ctx context.Context, userID uint, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, errors.ErrForbidden
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.notifier.Notify(sync.Change{Kind: sync.UserChanged, ID: user.ID})
	return user, nil
}
