package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"chezben/config"
	"chezben/internal/auth"
	"chezben/internal/domain"
	"chezben/internal/mailer"
	"chezben/internal/models"
	"chezben/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

var (
	ErrInvalidCreds    = errors.New("invalid email or password")
	ErrAccountDisabled = errors.New("account disabled")
)

type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	City     string
}

// GoogleIdentity is the verified profile returned by Google sign-in.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type AuthService struct {
	jwt     *config.JWTConfig
	users   *repository.UserRepository
	codes   *repository.ResetCodeRepository
	mail    mailer.Sender
	codeTTL time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewAuthService(jwt *config.JWTConfig, users *repository.UserRepository, codes *repository.ResetCodeRepository, mail mailer.Sender, codeTTL time.Duration, log *zap.Logger) *AuthService {
	if codeTTL <= 0 {
		codeTTL = 15 * time.Minute
	}
	return &AuthService{jwt: jwt, users: users, codes: codes, mail: mail, codeTTL: codeTTL, now: time.Now, log: log}
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(pw string) (string, error) {
	if len(pw) < MinPasswordLength {
		return "", invalid("password must be at least %d characters", MinPasswordLength)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *AuthService) tokens(u *models.User) (auth.TokenPair, error) {
	return auth.GeneratePair(s.jwt, u.ID, u.Email, u.Role)
}

// Register creates a USER account together with its profile.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, auth.TokenPair, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, auth.TokenPair{}, invalid("a valid email is required")
	}
	phone := strings.TrimSpace(in.Phone)
	if phone != "" && !domain.ValidPhone(phone) {
		return nil, auth.TokenPair{}, invalid("invalid phone number")
	}
	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, auth.TokenPair{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	u := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        phone,
		Role:         domain.RoleUser,
		IsActive:     true,
		Profile:      &models.Profile{City: strings.TrimSpace(in.City)},
	}
	if err := s.users.CreateWithProfile(u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, auth.TokenPair{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, auth.TokenPair{}, err
	}
	pair, err := s.tokens(u)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	s.log.Info("user registered", zap.Uint("user_id", u.ID))
	return u, pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, auth.TokenPair, error) {
	u, err := s.users.GetByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.TokenPair{}, ErrInvalidCreds
		}
		return nil, auth.TokenPair{}, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, auth.TokenPair{}, ErrInvalidCreds
	}
	if !u.IsActive {
		return nil, auth.TokenPair{}, ErrAccountDisabled
	}
	pair, err := s.tokens(u)
	return u, pair, err
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	id, err := auth.ParseRefreshToken(s.jwt, refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}
	u, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, auth.ErrInvalidToken
		}
		return auth.TokenPair{}, err
	}
	if !u.IsActive {
		return auth.TokenPair{}, ErrAccountDisabled
	}
	return s.tokens(u)
}

func (s *AuthService) ChangePassword(ctx context.Context, caller domain.Caller, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(caller.UserID)
	if err != nil {
		return notFoundAs(err, "user")
	}
	if u.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return invalid("Ancien mot de passe incorrect")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.users.Update(u)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestPasswordReset emails a one-time code when the address belongs to an account.
// It reports success either way so callers cannot enumerate registered emails.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("password reset lookup failed", zap.Error(err))
		}
		return nil
	}
	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := s.now()
	rc := &models.PasswordResetCode{UserID: u.ID, CodeHash: string(hash), ExpiresAt: now.Add(s.codeTTL), CreatedAt: now}
	if err := s.codes.Replace(rc, now); err != nil {
		return err
	}
	if err := s.mail.SendPasswordReset(u.Email, code, int(s.codeTTL/time.Minute)); err != nil {
		s.log.Warn("password reset email not delivered", zap.Uint("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// ConfirmPasswordReset sets a new password when code matches an unused, unexpired code.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	u, err := s.users.GetByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("Email invalide")
		}
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	now := s.now()
	active, err := s.codes.Active(u.ID, now)
	if err != nil {
		return err
	}
	for _, rc := range active {
		if bcrypt.CompareHashAndPassword([]byte(rc.CodeHash), []byte(strings.TrimSpace(code))) != nil {
			continue
		}
		if err := s.codes.Consume(rc.ID, u.ID, hash, now); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return err
		}
		s.log.Info("password reset", zap.Uint("user_id", u.ID))
		return nil
	}
	return invalid("Code invalide ou expiré")
}

// LoginWithGoogle signs in the account linked to the Google subject. Unknown subjects
// are linked to an existing account with the same email, or get a new USER account.
// Linking by email requires Google to have verified the address.
func (s *AuthService) LoginWithGoogle(ctx context.Context, id GoogleIdentity) (*models.User, auth.TokenPair, bool, error) {
	if id.Subject == "" || id.Email == "" {
		return nil, auth.TokenPair{}, false, invalid("incomplete Google identity")
	}
	u, err := s.users.GetByGoogleID(id.Subject)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, false, err
	}
	created := false
	if u == nil {
		email := NormalizeEmail(id.Email)
		u, err = s.users.GetByEmail(email)
		switch {
		case err == nil:
			if !id.EmailVerified {
				return nil, auth.TokenPair{}, false, forbidden("Google email not verified")
			}
			sub := id.Subject
			u.GoogleID = &sub
			if err := s.users.Update(u); err != nil {
				return nil, auth.TokenPair{}, false, err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			sub := id.Subject
			u = &models.User{
				Email:    email,
				FullName: strings.TrimSpace(id.Name),
				Role:     domain.RoleUser,
				IsActive: true,
				GoogleID: &sub,
				Profile:  &models.Profile{AvatarURL: id.Picture},
			}
			if err := s.users.CreateWithProfile(u); err != nil {
				return nil, auth.TokenPair{}, false, err
			}
			created = true
		default:
			return nil, auth.TokenPair{}, false, err
		}
	}
	if !u.IsActive {
		return nil, auth.TokenPair{}, false, ErrAccountDisabled
	}
	pair, err := s.tokens(u)
	return u, pair, created, err
}
