package docstore

import (
	"context"
	"fmt"

	"github.com/viant/afs"
)

// Backup copies the database file to target. The database is closed for the
// duration of the copy so the snapshot is consistent, then reopened.
func (s *Store) Backup(ctx context.Context, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeLocked(); err != nil {
		return fmt.Errorf("docstore: close before backup: %w", err)
	}
	fs := afs.New()
	if err := fs.Copy(ctx, s.dsn, target); err != nil {
		if openErr := s.open(ctx); openErr != nil {
			return fmt.Errorf("docstore: backup copy failed (%v) and reopen failed: %w", err, openErr)
		}
		return fmt.Errorf("docstore: backup copy: %w", err)
	}
	return s.open(ctx)
}

// Restore replaces the database file with the snapshot at source and
// reopens the store over it.
func (s *Store) Restore(ctx context.Context, source string) error {
	fs := afs.New()
	ok, err := fs.Exists(ctx, source)
	if err != nil {
		return fmt.Errorf("docstore: check backup %s: %w", source, err)
	}
	if !ok {
		return fmt.Errorf("docstore: backup %s does not exist", source)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.closeLocked(); err != nil {
		return fmt.Errorf("docstore: close before restore: %w", err)
	}
	if err := fs.Copy(ctx, source, s.dsn); err != nil {
		if openErr := s.open(ctx); openErr != nil {
			return fmt.Errorf("docstore: restore copy failed (%v) and reopen failed: %w", err, openErr)
		}
		return fmt.Errorf("docstore: restore copy: %w", err)
	}
	return s.open(ctx)
}
