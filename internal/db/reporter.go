package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Card operations have no transaction spanning the relational store and the
// vault, so two partial-failure states can occur and must stay detectable:
// an active secret entry nothing links to (store failed between its two
// inserts), and a deactivated link whose vault deletion was only requested,
// never confirmed. The queries below surface both; repair is a separate
// concern and is never attempted here.

// OrphanedSecretEntries returns the names of active secret entries that no
// active card link references.
func OrphanedSecretEntries(ctx context.Context, db *sql.DB) ([]string, error) {
	return collectNames(ctx, db, `
        SELECT se.secret_name FROM secret_entries se
         WHERE se.state = 'active'
           AND NOT EXISTS (
               SELECT 1 FROM card_links cl
                WHERE cl.secret_entry_id = se.id AND cl.state = 'active'
           )
    `)
}

// UnverifiedRemovals returns the names of inactive secret entries, i.e. the
// set whose vault payloads were requested deleted but never confirmed gone.
func UnverifiedRemovals(ctx context.Context, db *sql.DB) ([]string, error) {
	return collectNames(ctx, db, `
        SELECT se.secret_name FROM secret_entries se
         WHERE se.state = 'inactive'
    `)
}

func collectNames(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// StartOrphanReporter periodically logs the detectable partial-failure
// states so an external reconciliation sweep can act on them. It only
// reports; it never mutates rows or touches the vault.
func StartOrphanReporter(ctx context.Context, db *sql.DB, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				orphans, err := OrphanedSecretEntries(ctx, db)
				if err != nil {
					log.Error("failed to detect orphaned secret entries", zap.Error(err))
					continue
				}
				if len(orphans) > 0 {
					log.Warn("orphaned secret entries detected",
						zap.Int("count", len(orphans)),
						zap.Strings("names", orphans),
					)
				}
				unverified, err := UnverifiedRemovals(ctx, db)
				if err != nil {
					log.Error("failed to detect unverified removals", zap.Error(err))
					continue
				}
				if len(unverified) > 0 {
					log.Info("secret entries pending vault deletion confirmation",
						zap.Int("count", len(unverified)),
					)
				}
			}
		}
	}()
}
