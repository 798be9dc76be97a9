package goSeal

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSeal/integrity"
	"github.com/MrEthical07/goSeal/internal/rate"
	"github.com/MrEthical07/goSeal/jwt"
	"go.uber.org/zap"
)

// Authenticate verifies an outer token and returns its claims, which are
// either *AuthClaims or *BoundClaims. Failures are, in order of precedence,
// ErrMissingToken, ErrMalformedToken, ErrSignature, ErrExpiredToken and
// ErrClaimsRejected.
func (e *Engine) Authenticate(ctx context.Context, token string) (Claims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	claims, err := e.tokens.Verify(token)
	e.metrics.Observe(MetricVerifyLatency, time.Since(start))

	if err != nil {
		e.metricInc(MetricBearerRejected)
		e.logger.Debug("bearer rejected",
			zap.String("kind", ErrorKind(err)),
			zap.String("request_id", requestIDFromContext(ctx)),
		)
		e.emitAudit(ctx, auditRecord{eventType: auditEventTokenRejected, err: err})
		return nil, err
	}

	e.metricInc(MetricBearerAccepted)
	return claims, nil
}

// SignContent authenticates token and issues a bound token over payload for
// the same principal. Either a plain or a bound token is accepted as the
// identity proof; only its identity is used.
func (e *Engine) SignContent(ctx context.Context, token string, payload any) (string, error) {
	claims, err := e.Authenticate(ctx, token)
	if err != nil {
		return "", err
	}
	id := claims.Identity()

	rec, err := e.principals.FindPrincipal(ctx, id.Subject)
	if err != nil {
		e.emitAudit(ctx, auditRecord{
			eventType:   auditEventBoundTokenRefused,
			principalID: id.Subject,
			tokenID:     id.TokenID,
			err:         err,
		})
		return "", err
	}

	bound, err := e.tokens.IssueBound(rec.Principal, payload)
	if err != nil {
		e.logger.Debug("bound token refused", zap.String("kind", ErrorKind(err)), zap.String("principal_id", rec.ID))
		e.emitAudit(ctx, auditRecord{
			eventType:   auditEventBoundTokenRefused,
			principalID: rec.ID,
			username:    rec.Username,
			tokenID:     id.TokenID,
			err:         err,
		})
		return "", err
	}

	e.metricInc(MetricBoundTokenIssued)
	e.emitAudit(ctx, auditRecord{
		eventType:   auditEventBoundTokenIssued,
		success:     true,
		principalID: rec.ID,
		username:    rec.Username,
		tokenID:     id.TokenID,
	})
	return bound, nil
}

// VerifyContent checks that claims carry a valid content envelope and that
// requestPayload canonicalizes to exactly the signed bytes. A mismatch is
// returned as *PayloadMismatchError. The same bound token may be verified
// any number of times until it expires.
func (e *Engine) VerifyContent(ctx context.Context, claims Claims, requestPayload any) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	err := e.content.Verify(claims, requestPayload)
	if err == nil {
		e.metricInc(MetricContentAccepted)
		return nil
	}

	switch {
	case errors.Is(err, integrity.ErrMissingSignature):
		e.metricInc(MetricContentMissingSignature)
	case errors.Is(err, integrity.ErrInvalidSignature):
		e.metricInc(MetricContentInvalidSignature)
	case errors.Is(err, integrity.ErrPayloadMismatch):
		e.metricInc(MetricContentMismatch)
	}

	rec := auditRecord{eventType: auditEventContentRejected, err: err}
	if claims != nil {
		id := claims.Identity()
		rec.principalID, rec.username, rec.tokenID = id.Subject, id.Username, id.TokenID
	}
	var mismatch *PayloadMismatchError
	if errors.As(err, &mismatch) {
		rec.metadata = func() map[string]string {
			return map[string]string{
				"submitted": string(mismatch.Submitted),
				"signed":    string(mismatch.Signed),
			}
		}
	}
	e.logger.Debug("content rejected",
		zap.String("kind", ErrorKind(err)),
		zap.String("principal_id", rec.principalID),
		zap.String("request_id", requestIDFromContext(ctx)),
	)
	e.emitAudit(ctx, rec)
	return err
}

// AuthorizeMutation runs Authenticate then VerifyContent. Outer token
// failures always take precedence over content failures.
func (e *Engine) AuthorizeMutation(ctx context.Context, token string, requestPayload any) (*BoundClaims, error) {
	claims, err := e.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := e.VerifyContent(ctx, claims, requestPayload); err != nil {
		return nil, err
	}

	bound := claims.(*jwt.BoundClaims)
	e.emitAudit(ctx, auditRecord{
		eventType:   auditEventMutationAccepted,
		success:     true,
		principalID: bound.Subject,
		username:    bound.Username,
		tokenID:     bound.TokenID,
	})
	return bound, nil
}

// AllowRequest counts one request against key's window. It returns
// ErrRateLimited when the budget is spent and ErrRateLimiterUnavailable when
// Redis fails. Without rate limiting it always returns nil.
func (e *Engine) AllowRequest(ctx context.Context, key string) error {
	if e == nil || e.limiter == nil {
		return nil
	}

	err := e.limiter.AllowRequest(ctx, key)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricRateLimitHit)
		e.emitAudit(ctx, auditRecord{
			eventType: auditEventRateLimitTriggered,
			err:       ErrRateLimited,
			metadata:  func() map[string]string { return map[string]string{"key": key} },
		})
	} else {
		e.logger.Warn("request throttle unavailable", zap.Error(err))
	}
	return mapLimiterError(err, ErrRateLimited)
}
