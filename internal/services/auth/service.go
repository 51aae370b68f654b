package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/faceit-ledger/internal/dependencies/clock"
	"github.com/mcoot/faceit-ledger/internal/dependencies/random"
	"github.com/mcoot/faceit-ledger/internal/model"
	"github.com/mcoot/faceit-ledger/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrAddressRegistered  = errors.New("address already registered")
	ErrAddressReserved    = errors.New("address is reserved")
	ErrWeakPassphrase     = errors.New("passphrase must be at least 8 characters")
)

// MinPassphraseLength is the shortest passphrase Register accepts
const MinPassphraseLength = 8

// Session binds a bearer token to the address every call made with it
// is sent from
type Session struct {
	Token     string
	Address   model.Address
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles passphrase registration and session management
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	reserved map[model.Address]struct{}

	sessionDuration time.Duration
	hashCost        int
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration

	// HashCost is the bcrypt cost for new passphrases
	HashCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		HashCost:        bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = DefaultConfig().HashCost
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		random:          random,
		logger:          logger.With(slog.String("component", "auth")),
		sessions:        make(map[string]*Session),
		reserved:        make(map[model.Address]struct{}),
		sessionDuration: cfg.SessionDuration,
		hashCost:        cfg.HashCost,
	}
}

// Register sets the passphrase for an address and opens a session
func (s *Service) Register(ctx context.Context, addr model.Address, passphrase string) (*Session, error) {
	if addr.IsZero() {
		return nil, model.ErrInvalidAddress
	}
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrWeakPassphrase
	}

	if s.isReserved(addr) {
		s.logger.Warn("registration refused for reserved address", slog.String("address", addr.String()))
		return nil, ErrAddressReserved
	}

	if err := s.createCredential(ctx, addr, passphrase); err != nil {
		if errors.Is(err, model.ErrCredentialExists) {
			return nil, ErrAddressRegistered
		}
		return nil, err
	}

	s.logger.Info("address registered", slog.String("address", addr.String()))
	return s.createSession(addr), nil
}

// Reserve closes open registration for addr. Reserved addresses only get
// a credential through Provision.
func (s *Service) Reserve(addr model.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved[addr] = struct{}{}
}

func (s *Service) isReserved(addr model.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.reserved[addr]
	return ok
}

// Provision reserves addr and gives it a credential for passphrase, unless
// it already has one. An existing credential is kept as is.
func (s *Service) Provision(ctx context.Context, addr model.Address, passphrase string) error {
	if addr.IsZero() {
		return model.ErrInvalidAddress
	}
	if len(passphrase) < MinPassphraseLength {
		return ErrWeakPassphrase
	}
	s.Reserve(addr)

	err := s.createCredential(ctx, addr, passphrase)
	if errors.Is(err, model.ErrCredentialExists) {
		s.logger.Info("credential already provisioned", slog.String("address", addr.String()))
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("credential provisioned", slog.String("address", addr.String()))
	return nil
}

func (s *Service) createCredential(ctx context.Context, addr model.Address, passphrase string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), s.hashCost)
	if err != nil {
		return err
	}
	return s.storage.CreateCredential(ctx, &model.Credential{
		Address:        addr,
		PassphraseHash: string(hash),
		CreatedAt:      s.clock.Now(),
	})
}

// Login checks the passphrase for an address and opens a session
func (s *Service) Login(ctx context.Context, addr model.Address, passphrase string) (*Session, error) {
	cred, err := s.storage.GetCredential(ctx, addr)
	if err != nil {
		if errors.Is(err, model.ErrCredentialNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PassphraseHash), []byte(passphrase)); err != nil {
		s.logger.Warn("failed login", slog.String("address", addr.String()))
		return nil, ErrInvalidCredentials
	}

	return s.createSession(addr), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *Service) createSession(addr model.Address) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:     s.random.Token("sess_", 16),
		Address:   addr,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// CleanExpiredSessions removes expired sessions and reports how many
// were dropped
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// RunJanitor calls CleanExpiredSessions every interval until ctx is done
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CleanExpiredSessions(); n > 0 {
				s.logger.Debug("expired sessions removed", slog.Int("count", n))
			}
		}
	}
}
