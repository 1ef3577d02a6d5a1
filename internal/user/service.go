package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-crm-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-crm-go/internal/user/repo"
)

const (
	// MinPasswordLen is the shortest password accepted at registration.
	MinPasswordLen = 6
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", b.cost()), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports whether hash was produced with a different cost than
// the one currently configured.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return c != b.cost()
}

// Repository is the credential store used by UserService.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	EmailExists(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id, hash, algo string) error
}

// TokenIssuer mints access tokens for an authenticated user id.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// IDSource assigns user ids.
type IDSource interface {
	NewUserID() string
}

var (
	ErrValidation     = errors.New("invalid input")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUserNotFound   = errors.New("user not found")
)

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      entity.Summary `json:"user"`
}

// UserService registers users and exchanges credentials for access tokens.
type UserService struct {
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer
	ids    IDSource
	logger *zap.SugaredLogger

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(r Repository, hasher PasswordHasher, tokens TokenIssuer, ids IDSource, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{repo: r, hasher: hasher, tokens: tokens, ids: ids, logger: logger}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	switch {
	case name == "" || email == "" || password == "":
		return nil, validationError("name, email and password are required")
	case len(password) < MinPasswordLen:
		return nil, validationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	case len(password) > MaxPasswordBytes:
		return nil, validationError(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, validationError("email is not a valid address")
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		ID:           s.ids.NewUserID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PasswordAlgo: algo,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// same hashing cost as a wrong password
			s.hasher.Verify(s.dummy(), password)
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		if newHash, algo, hErr := s.hasher.Hash(password); hErr == nil {
			if err := s.repo.UpdatePassword(ctx, u.ID, newHash, algo); err != nil {
				s.logger.Warnw("password rehash failed", "user_id", u.ID, "err", err)
			}
		}
	}

	tok, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: tok, ExpiresAt: exp, User: u.Summary()}, nil
}

// dummy returns a hash at the configured cost, checked against when the
// email is unknown so both failure paths do the same bcrypt work.
func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		h, _, err := s.hasher.Hash("dummy-password-for-unknown-users")
		if err != nil {
			s.logger.Warnw("dummy hash failed", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// Me returns the public profile of an authenticated user.
func (s *UserService) Me(ctx context.Context, id string) (*entity.Summary, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	sum := u.Summary()
	return &sum, nil
}
