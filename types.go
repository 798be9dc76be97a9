package goSeal

import (
	"context"
	"time"

	"github.com/MrEthical07/goSeal/internal/audit"
	"github.com/MrEthical07/goSeal/jwt"
)

type (
	// Principal is the public identity carried in tokens.
	Principal = jwt.Principal
	// Claims is the verified content of an outer token.
	Claims = jwt.Claims
	// AuthClaims is the identity part of any verified token.
	AuthClaims = jwt.AuthClaims
	// BoundClaims is a verified token carrying a content envelope.
	BoundClaims = jwt.BoundClaims
)

// PrincipalRecord is what a PrincipalStore persists.
type PrincipalRecord struct {
	Principal
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// PrincipalStore persists principals. Implementations must be safe for
// concurrent use and return ErrPrincipalNotFound or ErrPrincipalExists
// (possibly wrapped) for the respective conditions.
type PrincipalStore interface {
	FindPrincipal(ctx context.Context, id string) (PrincipalRecord, error)
	FindByUsername(ctx context.Context, username string) (PrincipalRecord, error)
	InsertPrincipal(ctx context.Context, rec PrincipalRecord) error
	// UpdatePasswordHash replaces the stored hash, used for parameter upgrades.
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	ListPrincipals(ctx context.Context) ([]Principal, error)
}

// RegisterRequest is the input to Engine.Register.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

type (
	// AuditEvent is a single audit record.
	AuditEvent = audit.Event
	// AuditSink receives audit events from the Engine's dispatcher.
	AuditSink = audit.Sink
	// NoOpAuditSink discards events.
	NoOpAuditSink = audit.NoOpSink
	// ChannelAuditSink forwards events to a buffered channel.
	ChannelAuditSink = audit.ChannelSink
	// JSONWriterAuditSink writes one JSON object per line.
	JSONWriterAuditSink = audit.JSONWriterSink
	// ZapAuditSink logs events through zap.
	ZapAuditSink = audit.ZapSink
)

var (
	NewChannelAuditSink    = audit.NewChannelSink
	NewJSONWriterAuditSink = audit.NewJSONWriterSink
	NewZapAuditSink        = audit.NewZapSink
)
