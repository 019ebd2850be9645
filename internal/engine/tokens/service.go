package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"patvault/internal/engine/scopes"
	"patvault/internal/platform/models"
	"patvault/internal/platform/repositories"
)

var (
	// ErrNotFound covers both missing tokens and tokens owned by someone
	// else; callers must not be able to tell the two apart.
	ErrNotFound = errors.New("token not found")
	// ErrAlreadyRevoked reports a revoke of an already-revoked token. The
	// state is unchanged; this is a notice, not a failure.
	ErrAlreadyRevoked = errors.New("token already revoked")
	// ErrRevoked rejects lifecycle operations on a revoked token.
	ErrRevoked       = errors.New("cannot regenerate a revoked token")
	ErrInvalidExpiry = errors.New("expiry must be between 1 day and the configured maximum")
	ErrNoScopes      = errors.New("at least one scope is required")
	ErrNameRequired  = errors.New("token name is required")
)

// CacheInvalidator is the slice of the validation cache the lifecycle needs:
// dropping the entry for a secret hash. Invalidation is synchronous and runs
// before a mutation is reported successful.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, secretHash string)
}

type Service struct {
	repo          *repositories.TokenRepository
	cache         CacheInvalidator
	clock         clockwork.Clock
	maxExpiryDays int
}

func NewService(repo *repositories.TokenRepository, cache CacheInvalidator, clock clockwork.Clock, maxExpiryDays int) *Service {
	return &Service{
		repo:          repo,
		cache:         cache,
		clock:         clock,
		maxExpiryDays: maxExpiryDays,
	}
}

// Create mints a token and returns the record together with the one-time
// plaintext secret. The secret is not retrievable again by any code path.
func (s *Service) Create(ctx context.Context, userID, name string, scopeList []string, expiresInDays int, allowedIPs []string) (*models.Token, string, error) {
	if name == "" {
		return nil, "", ErrNameRequired
	}
	if len(scopeList) == 0 {
		return nil, "", ErrNoScopes
	}
	if _, err := scopes.ParseList(scopeList); err != nil {
		return nil, "", err
	}
	if expiresInDays < 1 || expiresInDays > s.maxExpiryDays {
		return nil, "", ErrInvalidExpiry
	}

	secret, secretHash, prefix, err := GenerateSecret()
	if err != nil {
		return nil, "", err
	}

	now := s.clock.Now()
	token := &models.Token{
		ID:         "tok_" + uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Prefix:     prefix,
		SecretHash: secretHash,
		Scopes:     scopeList,
		AllowedIPs: normalizeIPs(allowedIPs),
		Revoked:    false,
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(time.Duration(expiresInDays) * 24 * time.Hour).Unix(),
	}

	if err := s.repo.Create(token); err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}

	return token, secret, nil
}

func (s *Service) Get(ctx context.Context, userID, tokenID string) (*models.Token, error) {
	token, err := s.repo.GetByIDAndUser(tokenID, userID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrNotFound
	}
	return token, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*models.Token, error) {
	return s.repo.ListByUser(userID)
}

// Revoke sets the revocation flag and drops the validation cache entry before
// reporting success. Revoking twice returns the unchanged record along with
// ErrAlreadyRevoked.
func (s *Service) Revoke(ctx context.Context, userID, tokenID string) (*models.Token, error) {
	token, err := s.Get(ctx, userID, tokenID)
	if err != nil {
		return nil, err
	}
	if token.Revoked {
		return token, ErrAlreadyRevoked
	}

	if err := s.repo.SetRevoked(token.ID); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, token.SecretHash)

	token.Revoked = true
	return token, nil
}

// Regenerate mints new secret material in place: same id, name, and scopes.
// The cache entry keyed by the old hash is invalidated so the superseded
// secret stops working immediately rather than at cache TTL.
func (s *Service) Regenerate(ctx context.Context, userID, tokenID string, newExpiresInDays int) (*models.Token, string, error) {
	token, err := s.Get(ctx, userID, tokenID)
	if err != nil {
		return nil, "", err
	}
	if token.Revoked {
		return nil, "", ErrRevoked
	}
	if newExpiresInDays < 0 || newExpiresInDays > s.maxExpiryDays {
		return nil, "", ErrInvalidExpiry
	}

	secret, secretHash, prefix, err := GenerateSecret()
	if err != nil {
		return nil, "", err
	}

	oldHash := token.SecretHash
	now := s.clock.Now()

	token.Prefix = prefix
	token.SecretHash = secretHash
	token.CreatedAt = now.Unix()
	token.LastUsedAt = nil
	if newExpiresInDays > 0 {
		token.ExpiresAt = now.Add(time.Duration(newExpiresInDays) * 24 * time.Hour).Unix()
	}

	if err := s.repo.UpdateSecret(token); err != nil {
		return nil, "", err
	}
	s.cache.Invalidate(ctx, oldHash)

	return token, secret, nil
}

// UpdateAllowedIPs replaces the whitelist. An empty list means unrestricted,
// not deny-all. The cache entry is invalidated like any other token mutation.
func (s *Service) UpdateAllowedIPs(ctx context.Context, userID, tokenID string, ips []string) (*models.Token, error) {
	token, err := s.Get(ctx, userID, tokenID)
	if err != nil {
		return nil, err
	}

	normalized := normalizeIPs(ips)
	if err := s.repo.UpdateAllowedIPs(token.ID, normalized); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, token.SecretHash)

	token.AllowedIPs = normalized
	return token, nil
}

func normalizeIPs(ips []string) []string {
	if len(ips) == 0 {
		return nil
	}
	return ips
}
