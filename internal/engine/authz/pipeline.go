package authz

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"patvault/internal/engine/scopes"
	"patvault/internal/engine/tokens"
	"patvault/internal/platform/models"
	"patvault/internal/platform/repositories"
)

// Denial reasons are part of the wire contract; callers distinguish them by
// substring match and they must never collide.
const (
	ReasonInvalidToken      = "invalid token"
	ReasonRevoked           = "token revoked"
	ReasonExpired           = "token expired"
	ReasonIPNotAllowed      = "IP address not allowed"
	ReasonInsufficientScope = "insufficient permissions"
)

// ErrMalformedCredential rejects credentials that cannot resolve to any token
// id. These rejections produce no audit entry.
var ErrMalformedCredential = errors.New("malformed credential")

type Result struct {
	Granted       bool
	UserID        string
	TokenID       string
	Scopes        []string
	GrantingScope string
	DenialReason  string
	StatusCode    int
}

// Recorder receives one entry per resolved authorization decision. Writes are
// best-effort; implementations must not fail the request.
type Recorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

// Pipeline is the hot path: it resolves a bearer credential to a token
// record, enforces revocation, expiry, and IP rules, checks the required
// scope, and audits the outcome. Safe for concurrent use.
type Pipeline struct {
	repo     *repositories.TokenRepository
	cache    ValidationCache
	recorder Recorder
	clock    clockwork.Clock
}

func NewPipeline(repo *repositories.TokenRepository, cache ValidationCache, recorder Recorder, clock clockwork.Clock) *Pipeline {
	return &Pipeline{
		repo:     repo,
		cache:    cache,
		recorder: recorder,
		clock:    clock,
	}
}

// Authorize runs the full validation sequence for one request. Store errors
// propagate: no decision can be made without the authoritative record. Cache
// and audit failures degrade without affecting the decision.
func (p *Pipeline) Authorize(ctx context.Context, credential, clientIP, method, path string, required scopes.Scope) (*Result, error) {
	if !tokens.ValidFormat(credential) {
		return nil, ErrMalformedCredential
	}

	secretHash := tokens.HashSecret(credential)
	now := p.clock.Now().Unix()

	snap, cached := p.cache.Get(ctx, secretHash)
	if !cached {
		candidates, err := p.repo.FindByPrefix(tokens.LookupPrefix(credential))
		if err != nil {
			return nil, err
		}

		// The prefix narrows the search but proves nothing: verify the full
		// hash against every candidate before giving up.
		var match *models.Token
		for _, t := range candidates {
			if t.SecretHash == secretHash {
				match = t
				break
			}
		}
		if match == nil {
			return &Result{Granted: false, StatusCode: http.StatusUnauthorized, DenialReason: ReasonInvalidToken}, nil
		}

		if match.Revoked {
			return p.deny(ctx, match.ID, clientIP, method, path, http.StatusUnauthorized, ReasonRevoked), nil
		}

		snap = &Snapshot{
			TokenID:    match.ID,
			UserID:     match.UserID,
			Scopes:     match.Scopes,
			AllowedIPs: match.AllowedIPs,
			ExpiresAt:  match.ExpiresAt,
		}
	}

	// Revocation is only checked on the store path: lifecycle mutations
	// invalidate the cache synchronously, so a live entry implies not revoked
	// within the TTL staleness bound.
	if now >= snap.ExpiresAt {
		p.cache.Invalidate(ctx, secretHash)
		return p.deny(ctx, snap.TokenID, clientIP, method, path, http.StatusUnauthorized, ReasonExpired), nil
	}

	if !ipAllowed(clientIP, snap.AllowedIPs) {
		return p.deny(ctx, snap.TokenID, clientIP, method, path, http.StatusForbidden, ReasonIPNotAllowed), nil
	}

	granted, err := scopes.ParseList(snap.Scopes)
	if err != nil {
		// Stored scopes are validated at creation; treat corruption as an
		// unusable credential rather than a server fault.
		return p.deny(ctx, snap.TokenID, clientIP, method, path, http.StatusForbidden, ReasonInsufficientScope), nil
	}

	ok, granting := scopes.Check(granted, required)
	if !ok {
		res := p.deny(ctx, snap.TokenID, clientIP, method, path, http.StatusForbidden, ReasonInsufficientScope)
		res.Scopes = snap.Scopes
		return res, nil
	}

	if err := p.repo.UpdateLastUsed(snap.TokenID, now); err != nil {
		log.Warn().Err(err).Str("token_id", snap.TokenID).Msg("failed to update token last_used_at")
	}
	if !cached {
		p.cache.Set(ctx, secretHash, snap)
	}

	p.audit(ctx, snap.TokenID, clientIP, method, path, http.StatusOK, true, "")

	return &Result{
		Granted:       true,
		UserID:        snap.UserID,
		TokenID:       snap.TokenID,
		Scopes:        snap.Scopes,
		GrantingScope: granting.String(),
		StatusCode:    http.StatusOK,
	}, nil
}

func (p *Pipeline) deny(ctx context.Context, tokenID, clientIP, method, path string, status int, reason string) *Result {
	p.audit(ctx, tokenID, clientIP, method, path, status, false, reason)
	return &Result{
		Granted:      false,
		TokenID:      tokenID,
		StatusCode:   status,
		DenialReason: reason,
	}
}

func (p *Pipeline) audit(ctx context.Context, tokenID, clientIP, method, path string, status int, authorized bool, reason string) {
	p.recorder.Record(ctx, &models.AuditLog{
		TokenID:    tokenID,
		Timestamp:  p.clock.Now().Unix(),
		IPAddress:  clientIP,
		Method:     method,
		Endpoint:   path,
		StatusCode: status,
		Authorized: authorized,
		Reason:     reason,
	})
}
