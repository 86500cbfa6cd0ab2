// Package postgres provides a formts.Watcher that loads initial form
// values from a PostgreSQL row using LISTEN/NOTIFY.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table holding one row of values per form.
const DefaultTable = "form_values"

// Watcher watches one row of a key/value table. A trigger on the table
// must send the row key on the notification channel; DDL returns a
// matching table and trigger definition.
type Watcher struct {
	pool        *pgxpool.Pool
	channel     string
	key         string
	table       string
	emitMissing bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithTable sets the table to query. Defaults to DefaultTable.
func WithTable(table string) Option {
	return func(w *Watcher) {
		w.table = table
	}
}

// WithDefaultsWhenMissing makes the watcher emit "{}" when the row is
// absent or deleted, resetting a bound form to its defaults.
func WithDefaultsWhenMissing() Option {
	return func(w *Watcher) {
		w.emitMissing = true
	}
}

// New creates a new Watcher for the row identified by key, woken by
// notifications on channel.
func New(pool *pgxpool.Pool, channel, key string, opts ...Option) *Watcher {
	w := &Watcher{
		pool:    pool,
		channel: channel,
		key:     key,
		table:   DefaultTable,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// DDL returns statements creating table (key TEXT, value BYTEA) and a
// trigger notifying channel with the key of every inserted, updated or
// deleted row.
func DDL(table, channel string) string {
	t := pgx.Identifier{table}.Sanitize()
	fn := pgx.Identifier{"notify_" + table}.Sanitize()
	trg := pgx.Identifier{table + "_notify"}.Sanitize()
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL
);

CREATE OR REPLACE FUNCTION %[2]s() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify(%[4]s, COALESCE(NEW.key, OLD.key));
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS %[3]s ON %[1]s;
CREATE TRIGGER %[3]s
	AFTER INSERT OR UPDATE OR DELETE ON %[1]s
	FOR EACH ROW EXECUTE FUNCTION %[2]s();
`, t, fn, trg, quoteLiteral(channel))
}

func quoteLiteral(s string) string {
	out := []byte{'\''}
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}

// Watch begins listening for notifications and returns a channel that
// emits the row's value whenever it changes. The current value is emitted
// first so a bound form loads before Bind returns.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", w.channel, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer conn.Release()

		send := func() bool {
			value, err := w.fetchValue(ctx)
			if err != nil || value == nil {
				return true
			}
			select {
			case out <- value:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if n.Payload != w.key {
				continue
			}
			if !send() {
				return
			}
		}
	}()

	return out, nil
}

// fetchValue reads the row's value. A missing row yields nil, or "{}"
// with WithDefaultsWhenMissing.
func (w *Watcher) fetchValue(ctx context.Context) ([]byte, error) {
	var value []byte
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", pgx.Identifier{w.table}.Sanitize())
	err := w.pool.QueryRow(ctx, query, w.key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		if w.emitMissing {
			return []byte("{}"), nil
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}
