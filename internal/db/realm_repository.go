package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/realmgo/internal/auth"
)

// ErrNoSnapshot is returned when no realm list was stored for the account.
var ErrNoSnapshot = errors.New("db: no realm snapshot")

// RealmRepository stores realm list snapshots of one account.
// It implements auth.RealmSink; identical consecutive lists are written once.
type RealmRepository struct {
	pool    *pgxpool.Pool
	account string

	mu   sync.Mutex
	last []auth.Realm
}

// NewRealmRepository creates a repository for account (stored uppercased).
func NewRealmRepository(pool *pgxpool.Pool, account string) *RealmRepository {
	return &RealmRepository{pool: pool, account: strings.ToUpper(account)}
}

// StoreRealms writes realms as a new snapshot unless it equals the previous one.
func (r *RealmRepository) StoreRealms(ctx context.Context, realms []auth.Realm) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != nil && slices.Equal(r.last, realms) {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for realm snapshot: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "account", r.account, "error", err)
		}
	}()

	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO realm_snapshots (account) VALUES ($1) RETURNING id`, r.account,
	).Scan(&id); err != nil {
		return fmt.Errorf("inserting realm snapshot for %q: %w", r.account, err)
	}

	if len(realms) > 0 {
		rows := make([][]any, 0, len(realms))
		for i, rl := range realms {
			rows = append(rows, []any{
				id, int16(i), int16(rl.ID), rl.Name, rl.Address,
				int16(rl.Type), int16(rl.Locked), int16(rl.Flags),
				rl.Population, int16(rl.Characters), int16(rl.Timezone),
				int16(rl.Major), int16(rl.Minor), int16(rl.Patch), int32(rl.Build),
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"realm_snapshot_entries"},
			[]string{
				"snapshot_id", "position", "realm_id", "name", "address",
				"realm_type", "locked", "flags",
				"population", "characters", "timezone",
				"major", "minor", "patch", "build",
			},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("inserting realms of snapshot %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit realm snapshot %d: %w", id, err)
	}
	r.last = slices.Clone(realms)

	slog.Debug("stored realm snapshot",
		"account", r.account,
		"snapshotID", id,
		"count", len(realms))
	return nil
}

// LatestRealms returns the most recent snapshot of the account and when it was taken.
func (r *RealmRepository) LatestRealms(ctx context.Context) ([]auth.Realm, time.Time, error) {
	var (
		id      int64
		takenAt time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, taken_at FROM realm_snapshots
		 WHERE account = $1 ORDER BY taken_at DESC, id DESC LIMIT 1`, r.account,
	).Scan(&id, &takenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, ErrNoSnapshot
		}
		return nil, time.Time{}, fmt.Errorf("querying latest snapshot for %q: %w", r.account, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT realm_id, name, address, realm_type, locked, flags,
		        population, characters, timezone, major, minor, patch, build
		 FROM realm_snapshot_entries WHERE snapshot_id = $1 ORDER BY position`, id,
	)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("querying realms of snapshot %d: %w", id, err)
	}
	defer rows.Close()

	realms := make([]auth.Realm, 0)
	for rows.Next() {
		var (
			rl                                     auth.Realm
			realmID, typ, locked, flags, chars, tz int16
			major, minor, patch                    int16
			build                                  int32
		)
		if err := rows.Scan(&realmID, &rl.Name, &rl.Address, &typ, &locked, &flags,
			&rl.Population, &chars, &tz, &major, &minor, &patch, &build); err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning realm of snapshot %d: %w", id, err)
		}
		rl.ID = uint8(realmID)
		rl.Type = uint8(typ)
		rl.Locked = uint8(locked)
		rl.Flags = uint8(flags)
		rl.Characters = uint8(chars)
		rl.Timezone = uint8(tz)
		rl.Major = uint8(major)
		rl.Minor = uint8(minor)
		rl.Patch = uint8(patch)
		rl.Build = uint16(build)
		realms = append(realms, rl)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterating realms of snapshot %d: %w", id, err)
	}
	return realms, takenAt, nil
}
