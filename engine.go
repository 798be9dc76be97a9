package goSeal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goSeal/integrity"
	"github.com/MrEthical07/goSeal/internal/audit"
	"github.com/MrEthical07/goSeal/internal/rate"
	"github.com/MrEthical07/goSeal/jwt"
	"github.com/MrEthical07/goSeal/password"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the runtime authentication and content-integrity service. It is
// immutable after Build and safe for concurrent use.
type Engine struct {
	config     Config
	tokens     *jwt.Manager
	content    *integrity.Verifier
	hasher     *password.Argon2
	principals PrincipalStore
	limiter    *rate.Limiter
	audit      *audit.Dispatcher
	metrics    *Metrics
	logger     *zap.Logger
}

// Close flushes pending audit events. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
	_ = e.logger.Sync()
}

// AuditDropped reports how many audit events were discarded on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

// TokenTTL is the validity window of issued tokens.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.tokens == nil {
		return 0
	}
	return e.tokens.TTL()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e.config.Token.Now != nil {
		return e.config.Token.Now()
	}
	return time.Now()
}

func (e *Engine) ready() bool {
	return e != nil && e.tokens != nil && e.content != nil && e.principals != nil
}

// Register creates a principal with an Argon2id password hash and returns
// its public identity.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (Principal, error) {
	if !e.ready() {
		return Principal{}, ErrEngineNotReady
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Password == "" {
		return Principal{}, ErrRegistrationInvalid
	}

	fail := func(err error) (Principal, error) {
		e.emitAudit(ctx, auditRecord{
			eventType: auditEventRegisterFailure,
			username:  req.Username,
			err:       err,
		})
		return Principal{}, err
	}

	if err := e.hasher.CheckPolicy(req.Password); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrPasswordPolicy, err))
	}

	if _, err := e.principals.FindByUsername(ctx, req.Username); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		return fail(ErrPrincipalExists)
	} else if !errors.Is(err, ErrPrincipalNotFound) {
		return fail(err)
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return fail(err)
	}

	rec := PrincipalRecord{
		Principal: Principal{
			ID:       uuid.NewString(),
			Username: req.Username,
			Email:    req.Email,
		},
		PasswordHash: hash,
		CreatedAt:    e.now().UTC(),
	}
	if err := e.principals.InsertPrincipal(ctx, rec); err != nil {
		if errors.Is(err, ErrPrincipalExists) {
			e.metricInc(MetricRegisterDuplicate)
		}
		return fail(err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditRecord{
		eventType:   auditEventRegisterSuccess,
		success:     true,
		principalID: rec.ID,
		username:    rec.Username,
	})
	return rec.Principal, nil
}

// Login checks credentials and returns a plain outer token. With rate
// limiting enabled, repeated failures per username (and client IP) lock the
// caller out for LoginCooldown.
func (e *Engine) Login(ctx context.Context, username, pass string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	username = strings.TrimSpace(username)
	ip := clientIPFromContext(ctx)

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, username, ip); err != nil {
			mapped := mapLimiterError(err, ErrLoginRateLimited)
			if errors.Is(mapped, ErrLoginRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, auditRecord{eventType: auditEventLoginRateLimited, username: username, err: mapped})
			} else {
				e.logger.Warn("login throttle unavailable", zap.Error(err))
			}
			return "", mapped
		}
	}

	rec, err := e.principals.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return "", e.failLogin(ctx, username, ip)
		}
		return "", err
	}

	ok, err := e.hasher.Verify(pass, rec.PasswordHash)
	if err != nil && !errors.Is(err, password.ErrPasswordTooLong) {
		e.logger.Warn("stored password hash unusable", zap.String("principal_id", rec.ID), zap.Error(err))
		return "", err
	}
	if !ok {
		return "", e.failLogin(ctx, username, ip)
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, username, ip); err != nil {
			e.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	e.upgradePasswordHash(ctx, rec, pass)

	token, err := e.tokens.IssueAuth(rec.Principal)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, auditRecord{
		eventType:   auditEventLoginSuccess,
		success:     true,
		principalID: rec.ID,
		username:    rec.Username,
	})
	return token, nil
}

func (e *Engine) failLogin(ctx context.Context, username, ip string) error {
	e.metricInc(MetricLoginFailure)
	if e.limiter != nil {
		if err := e.limiter.IncrementLogin(ctx, username, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
			e.logger.Warn("login throttle increment failed", zap.Error(err))
		}
	}
	rec := auditRecord{
		eventType: auditEventLoginFailure,
		username:  username,
		err:       ErrInvalidCredentials,
	}
	if e.limiter != nil && e.audit != nil {
		if attempts, err := e.limiter.GetLoginAttempts(ctx, username); err == nil {
			rec.metadata = func() map[string]string {
				return map[string]string{"failed_attempts": strconv.Itoa(attempts)}
			}
		}
	}
	e.emitAudit(ctx, rec)
	return ErrInvalidCredentials
}

// upgradePasswordHash re-hashes with the current parameters after a
// successful login. Failures are logged and never fail the login.
func (e *Engine) upgradePasswordHash(ctx context.Context, rec PrincipalRecord, pass string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}
	needs, err := e.hasher.NeedsUpgrade(rec.PasswordHash)
	if err != nil || !needs {
		return
	}
	hash, err := e.hasher.Hash(pass)
	if err != nil {
		e.logger.Warn("password rehash failed", zap.String("principal_id", rec.ID), zap.Error(err))
		return
	}
	if err := e.principals.UpdatePasswordHash(ctx, rec.ID, hash); err != nil {
		e.logger.Warn("password rehash store failed", zap.String("principal_id", rec.ID), zap.Error(err))
		return
	}
	e.metricInc(MetricPasswordUpgraded)
}

// Principal returns the public identity stored under id.
func (e *Engine) Principal(ctx context.Context, id string) (Principal, error) {
	if !e.ready() {
		return Principal{}, ErrEngineNotReady
	}
	rec, err := e.principals.FindPrincipal(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	return rec.Principal, nil
}

// Principals lists every registered identity in registration order.
func (e *Engine) Principals(ctx context.Context) ([]Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	return e.principals.ListPrincipals(ctx)
}
