package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AcquireSchedulerLock attempts to grant or renew the named lease to owner
// for ttlSecs seconds. It returns true when the caller holds the lease
// after the call: the row is absent, already expired, or already owned by
// owner. Otherwise it returns false without touching the row — a live
// lease held by a different owner is never stolen.
func (s *Store) AcquireSchedulerLock(lockName, owner string, ttlSecs int) (bool, error) {
	var acquired bool
	err := s.withTransaction(func(tx *sql.Tx) error {
		var currentOwner, expiresAt string
		err := tx.QueryRow(`
			SELECT owner_id, expires_at FROM scheduler_locks WHERE lock_name = ?
		`, lockName).Scan(&currentOwner, &expiresAt)

		now := time.Now().UTC()
		nowStr := now.Format(time.RFC3339)
		newExpiry := now.Add(time.Duration(ttlSecs) * time.Second).Format(time.RFC3339)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.Exec(`
				INSERT INTO scheduler_locks (lock_name, owner_id, acquired_at, expires_at)
				VALUES (?, ?, ?, ?)
			`, lockName, owner, nowStr, newExpiry)
			if err != nil {
				return fmt.Errorf("failed to insert scheduler lock %s: %w", lockName, err)
			}
			acquired = true
			return nil
		case err != nil:
			return fmt.Errorf("failed to fetch scheduler lock %s: %w", lockName, err)
		}

		expired := expiresAt <= nowStr
		sameOwner := currentOwner == owner
		if !expired && !sameOwner {
			acquired = false
			return nil
		}

		_, err = tx.Exec(`
			UPDATE scheduler_locks
			SET owner_id = ?, acquired_at = ?, expires_at = ?
			WHERE lock_name = ?
		`, owner, nowStr, newExpiry, lockName)
		if err != nil {
			return fmt.Errorf("failed to renew scheduler lock %s: %w", lockName, err)
		}
		acquired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return acquired, nil
}

// ReleaseSchedulerLock deletes the named lease, but only when owner still
// holds it. Releasing a lease you no longer hold is a no-op, never an error.
func (s *Store) ReleaseSchedulerLock(lockName, owner string) error {
	return s.withTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			DELETE FROM scheduler_locks WHERE lock_name = ? AND owner_id = ?
		`, lockName, owner)
		if err != nil {
			return fmt.Errorf("failed to release scheduler lock %s: %w", lockName, err)
		}
		return nil
	})
}
