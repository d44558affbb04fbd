package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/cryptox"
	"github.com/dmitrijs2005/dailyops/internal/logging"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/google/uuid"
)

const MinPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

type Service struct {
	repo       Repository
	setupToken string
	logger     logging.Logger

	// dummy is verified against when the username is unknown so a miss
	// costs as much as a wrong password.
	dummy models.PasswordCredential
}

func NewService(repo Repository, setupToken string, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop{}
	}
	salt, hash, version := cryptox.HashPassword(common.GenerateRandByteArray(16))
	return &Service{
		repo:       repo,
		setupToken: setupToken,
		logger:     logger.With("module", "users"),
		dummy:      models.PasswordCredential{Salt: salt, Hash: hash, Version: version},
	}
}

// SetupRequired reports whether no account exists yet.
func (s *Service) SetupRequired() bool {
	return s.repo.UserCount() == 0
}

// Setup creates an account when none exists yet, or at any time when token
// matches the configured setup token.
func (s *Service) Setup(ctx context.Context, token, username, password string) (models.User, error) {
	if !s.SetupRequired() && !s.setupTokenMatches(token) {
		return models.User{}, fmt.Errorf("%w: setup is closed", common.ErrUnauthorized)
	}
	return s.Register(ctx, username, password)
}

func (s *Service) setupTokenMatches(token string) bool {
	if s.setupToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.setupToken), []byte(token)) == 1
}

// Register validates and stores a new account. Usernames are unique
// case-insensitively.
func (s *Service) Register(ctx context.Context, username, password string) (models.User, error) {
	if err := ValidateUsername(username); err != nil {
		return models.User{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return models.User{}, err
	}

	pw := []byte(password)
	salt, hash, version := cryptox.HashPassword(pw)
	common.WipeByteArray(pw)

	u, err := s.repo.AddUser(ctx, models.User{
		ID:       uuid.NewString(),
		Username: username,
		Password: models.PasswordCredential{Salt: salt, Hash: hash, Version: version},
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return models.User{}, fmt.Errorf("username %q is taken: %w", username, common.ErrAlreadyExists)
		}
		return u, err
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Authenticate checks a username/password pair. Every failure is reported
// as common.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	u, err := s.repo.GetUserByUsername(username)
	if err != nil {
		cryptox.VerifyPassword(pw, s.dummy.Salt, s.dummy.Hash, s.dummy.Version)
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error(ctx, "user lookup failed", "error", err)
		}
		return models.User{}, common.ErrInvalidCredentials
	}

	if !cryptox.VerifyPassword(pw, u.Password.Salt, u.Password.Hash, u.Password.Version) {
		s.logger.Warn(ctx, "failed login", "username", username)
		return models.User{}, common.ErrInvalidCredentials
	}
	return u, nil
}

// Lookup returns the account behind a session.
func (s *Service) Lookup(id string) (models.User, error) {
	return s.repo.GetUserByID(id)
}

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-32 letters, digits, '_', '.' or '-'", common.ErrValidation)
	}
	return nil
}

// ValidatePassword requires at least MinPasswordLength characters mixing a
// letter, a digit and a symbol.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("%w: at least %d characters", common.ErrWeakPassword, MinPasswordLength)
	}

	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	if !letter || !digit || !symbol {
		return fmt.Errorf("%w: mix letters, digits and symbols", common.ErrWeakPassword)
	}
	return nil
}
