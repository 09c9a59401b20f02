package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ledger_service/internal/domain"
)

// PasswordHasher hashes and checks user credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// RegisterRequest creates a user together with its first account.
type RegisterRequest struct {
	Name           string
	Email          string
	Password       string
	InitialBalance decimal.Decimal
}

// Registration is the result of a successful Register.
type Registration struct {
	User    *domain.User
	Account *domain.Account
	Token   string
}

// UserService manages users, their accounts and logins.
type UserService struct {
	store  Store
	hasher PasswordHasher
	tokens TokenIssuer
	log    *logrus.Entry
	now    func() time.Time
}

// NewUserService returns a UserService.
func NewUserService(store Store, hasher PasswordHasher, tokens TokenIssuer, log *logrus.Entry) *UserService {
	if log == nil {
		log = nopLogger()
	}
	return &UserService{store: store, hasher: hasher, tokens: tokens, log: log, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkInitialBalance rejects balances an account column cannot hold.
func checkInitialBalance(b decimal.Decimal) error {
	switch {
	case b.IsNegative():
		return invalid("initialBalance", "must not be negative")
	case !b.Equal(b.Round(2)):
		return invalid("initialBalance", "must have at most two decimal places")
	case b.GreaterThan(MaxBalance):
		return invalid("initialBalance", "must not exceed "+MaxBalance.StringFixed(2))
	}
	return nil
}

// Register creates a user and an initial account in one unit of work.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	email := normalizeEmail(req.Email)
	log := s.log.WithField("email", email)
	if err := checkInitialBalance(req.InitialBalance); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		log.Warn("User already exists")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, storageErr("register", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, storageErr("hash password", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	user := &domain.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	account := &domain.Account{
		ID:        uuid.New(),
		UserID:    user.ID,
		Balance:   req.InitialBalance,
		CreatedAt: now,
	}

	err = s.store.Atomically(ctx, func(uow UnitOfWork) error {
		if err := uow.CreateUser(ctx, user); err != nil {
			return err
		}
		return uow.CreateAccount(ctx, account)
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			log.Warn("User already exists")
			return nil, err
		}
		log.WithError(err).Error("Failed to create user")
		return nil, storageErr("register", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, storageErr("issue token", err)
	}

	log.WithFields(logrus.Fields{
		"user_id":         user.ID,
		"account_id":      account.ID,
		"initial_balance": account.Balance.StringFixed(2),
	}).Info("User and account created")
	return &Registration{User: user, Account: account, Token: token}, nil
}

// OpenAccount creates an additional account for an existing user.
func (s *UserService) OpenAccount(ctx context.Context, userID uuid.UUID, initialBalance decimal.Decimal) (*domain.Account, error) {
	log := s.log.WithField("user_id", userID)
	if err := checkInitialBalance(initialBalance); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Warn("User not found")
			return nil, err
		}
		return nil, storageErr("open account", err)
	}

	account := &domain.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   initialBalance,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.Atomically(ctx, func(uow UnitOfWork) error {
		return uow.CreateAccount(ctx, account)
	}); err != nil {
		log.WithError(err).Error("Failed to create account")
		return nil, storageErr("open account", err)
	}

	log.WithFields(logrus.Fields{
		"account_id":      account.ID,
		"initial_balance": account.Balance.StringFixed(2),
	}).Info("Account created")
	return account, nil
}

// Login checks credentials and returns a bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.log.WithField("email", email).Warn("Invalid login attempt")
			return "", ErrInvalidCredentials
		}
		return "", storageErr("login", err)
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		s.log.WithField("email", email).Warn("Invalid login attempt")
		return "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", storageErr("issue token", err)
	}
	s.log.WithFields(logrus.Fields{"email": email, "user_id": user.ID}).Info("User logged in")
	return token, nil
}
