// Package telemetry records every control cycle into a SQLite database for offline tuning.
package telemetry

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"go.viam.com/lanefollow/logging"
)

// schema.sql creates one row per session and one row per control cycle.
//
//go:embed schema.sql
var schemaSQL string

// Cycle is what happened in one control cycle. Steering and Throttle are nil when nothing was
// sent to that actuator; Distance is nil when the range sensor was not read or had no reading.
type Cycle struct {
	Cycle          uint64
	At             time.Time
	LinesSeen      int
	Center         float64
	FilteredCenter float64
	Error          float64
	Deflection     float64
	Steering       *int
	Throttle       *float64
	BypassState    string
	Distance       *float64
}

// Recorder writes cycles for a single session.
type Recorder struct {
	db      *sql.DB
	session uuid.UUID
	logger  logging.Logger
}

// Open opens (creating if needed) the database at path and starts a new session.
func Open(ctx context.Context, path, configPath string, startedAt time.Time, logger logging.Logger) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "failed to initialize telemetry schema"), db.Close())
	}

	session := uuid.New()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, started_at_ns, config_path) VALUES (?, ?, ?)`,
		session.String(), startedAt.UnixNano(), configPath,
	); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "failed to start telemetry session"), db.Close())
	}
	logger.Infow("recording telemetry", "path", path, "session", session.String())
	return &Recorder{db: db, session: session, logger: logger}, nil
}

// Session returns the id of the session being recorded.
func (r *Recorder) Session() uuid.UUID {
	return r.session
}

// Record stores one cycle.
func (r *Recorder) Record(ctx context.Context, c Cycle) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cycles (
			session_id, cycle, at_ns, lines_seen, center, filtered_center, error, deflection,
			steering, throttle, bypass_state, distance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.session.String(), int64(c.Cycle), c.At.UnixNano(), c.LinesSeen, c.Center, c.FilteredCenter,
		c.Error, c.Deflection, c.Steering, c.Throttle, c.BypassState, c.Distance,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to record cycle %d", c.Cycle)
	}
	return nil
}

// Cycles returns every cycle recorded for session, in order.
func (r *Recorder) Cycles(ctx context.Context, session uuid.UUID) ([]Cycle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cycle, at_ns, lines_seen, center, filtered_center, error, deflection,
			steering, throttle, bypass_state, distance
		FROM cycles WHERE session_id = ? ORDER BY cycle`, session.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cycle
	for rows.Next() {
		var (
			c        Cycle
			cycle    int64
			atNs     int64
			steering sql.NullInt64
			throttle sql.NullFloat64
			distance sql.NullFloat64
		)
		if err := rows.Scan(&cycle, &atNs, &c.LinesSeen, &c.Center, &c.FilteredCenter, &c.Error,
			&c.Deflection, &steering, &throttle, &c.BypassState, &distance); err != nil {
			return nil, err
		}
		c.Cycle = uint64(cycle)
		c.At = time.Unix(0, atNs)
		if steering.Valid {
			v := int(steering.Int64)
			c.Steering = &v
		}
		if throttle.Valid {
			c.Throttle = &throttle.Float64
		}
		if distance.Valid {
			c.Distance = &distance.Float64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
