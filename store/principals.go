package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	goSeal "github.com/MrEthical07/goSeal"
)

// MemoryPrincipals is a process-lifetime goSeal.PrincipalStore.
type MemoryPrincipals struct {
	records *Memory[goSeal.PrincipalRecord]

	mu         sync.Mutex
	byUsername map[string]string
}

var _ goSeal.PrincipalStore = (*MemoryPrincipals)(nil)

func NewMemoryPrincipals() *MemoryPrincipals {
	return &MemoryPrincipals{
		records:    NewMemory(func(r goSeal.PrincipalRecord) string { return r.ID }),
		byUsername: make(map[string]string),
	}
}

func (s *MemoryPrincipals) FindPrincipal(_ context.Context, id string) (goSeal.PrincipalRecord, error) {
	rec, err := s.records.Find(id)
	return rec, principalErr(err)
}

func (s *MemoryPrincipals) FindByUsername(ctx context.Context, username string) (goSeal.PrincipalRecord, error) {
	s.mu.Lock()
	id, ok := s.byUsername[username]
	s.mu.Unlock()
	if !ok {
		return goSeal.PrincipalRecord{}, goSeal.ErrPrincipalNotFound
	}
	return s.FindPrincipal(ctx, id)
}

// InsertPrincipal rejects a taken id or username with goSeal.ErrPrincipalExists.
func (s *MemoryPrincipals) InsertPrincipal(_ context.Context, rec goSeal.PrincipalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[rec.Username]; taken {
		return goSeal.ErrPrincipalExists
	}
	if err := s.records.Insert(rec); err != nil {
		return principalErr(err)
	}
	s.byUsername[rec.Username] = rec.ID
	return nil
}

func (s *MemoryPrincipals) UpdatePasswordHash(_ context.Context, id, hash string) error {
	_, err := s.records.Update(id, func(r *goSeal.PrincipalRecord) error {
		r.PasswordHash = hash
		return nil
	})
	return principalErr(err)
}

func (s *MemoryPrincipals) ListPrincipals(context.Context) ([]goSeal.Principal, error) {
	recs := s.records.List()
	out := make([]goSeal.Principal, len(recs))
	for i, r := range recs {
		out[i] = r.Principal
	}
	return out, nil
}

func principalErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return goSeal.ErrPrincipalNotFound
	case errors.Is(err, ErrExists):
		return goSeal.ErrPrincipalExists
	default:
		return fmt.Errorf("principal store: %w", err)
	}
}
