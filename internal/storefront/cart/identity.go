package cart

import (
	"context"
	"errors"

	"produce-marketplace/internal/domain"

	"go.uber.org/zap"
)

// SetIdentity switches the Store to the backend for id.
//
// Guest to authenticated merges the guest cart into the remote cart in a single
// all-or-nothing call, then clears the guest slot. If the merge fails the Store
// stays in guest mode with its lines intact. Authenticated to guest discards the
// cart and clears the guest slot. A token change reloads from the new backend.
func (s *Store) SetIdentity(ctx context.Context, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.identity
	if prev.SameAccount(id) {
		s.identity = id
		return nil
	}

	backend, err := s.resolver.Resolve(id)
	if err != nil {
		return err
	}

	switch {
	case !prev.Authenticated && id.Authenticated:
		return s.login(ctx, id, backend)
	case prev.Authenticated && !id.Authenticated:
		return s.logout(ctx, id, backend)
	default:
		lines, err := backend.Load(ctx)
		if err != nil {
			return err
		}
		s.backend = backend
		s.identity = id
		s.lines = lines
		s.emit(Event{Kind: EventApplied, Op: OpMerge})
		return nil
	}
}

func (s *Store) login(ctx context.Context, id domain.Identity, remote Backend) error {
	remoteLines, err := remote.Load(ctx)
	if err != nil {
		s.emit(Event{Kind: EventFailed, Op: OpMerge, Err: err})
		return err
	}

	merged := remoteLines
	if len(s.lines) > 0 {
		expected := domain.CloneLines(remoteLines)
		for _, l := range s.lines {
			expected = domain.MergeLine(expected, l)
		}
		merged, err = remote.Apply(ctx, Mutation{Op: OpMerge, Lines: domain.CloneLines(s.lines)}, expected)
		if err != nil {
			s.logger.Warn("guest cart merge failed, staying in guest mode", zap.Error(err))
			s.emit(Event{Kind: EventFailed, Op: OpMerge, Err: err})
			return err
		}
	}

	// The remote cart now owns the guest lines; a stale slot would resurrect them.
	if _, err := s.backend.Apply(ctx, Mutation{Op: OpClear}, []domain.CartLine{}); err != nil {
		s.logger.Warn("guest slot not cleared after login", zap.Error(err))
	}
	s.backend = remote
	s.identity = id
	s.lines = merged
	s.emit(Event{Kind: EventApplied, Op: OpMerge})
	return nil
}

func (s *Store) logout(ctx context.Context, id domain.Identity, guest Backend) error {
	s.backend = guest
	s.identity = id
	s.lines = []domain.CartLine{}
	if _, err := guest.Apply(ctx, Mutation{Op: OpClear}, []domain.CartLine{}); err != nil {
		if !errors.Is(err, domain.ErrStorage) {
			return err
		}
		s.logger.Warn("guest slot not cleared on logout", zap.Error(err))
		s.emit(Event{Kind: EventDegraded, Op: OpClear, Err: err})
		return nil
	}
	s.emit(Event{Kind: EventApplied, Op: OpClear})
	return nil
}
