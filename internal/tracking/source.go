// Package tracking reads match metadata, per-frame entity positions and
// match events from a sqlite database.
package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"match-simulator/internal/formation"
	"match-simulator/internal/platform/config"
	"match-simulator/internal/platform/logger"
	"match-simulator/internal/simulator"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

// ballPlayerID marks tracking rows that belong to the ball.
const ballPlayerID = "ball"

type frameKey struct {
	match string
	frame int64
}

// Source is a sqlite-backed tracking data source. It is safe for
// concurrent use.
type Source struct {
	db    *sql.DB
	cache *lru.Cache[frameKey, simulator.Frame]
	log   *slog.Logger
}

// Open opens the database at cfg.Path, applying migrations when cfg.Migrate
// is set. Frame samples are cached for up to cfg.CacheSize frames; a size
// of zero or less disables the cache.
func Open(ctx context.Context, cfg config.Database, log *slog.Logger) (*Source, error) {
	log = logger.OrDiscard(log)

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	if isMemory(cfg.Path) {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Path, err)
	}

	if cfg.Migrate {
		if err := MigrateUp(db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
		version, _, _ := MigrateVersion(db)
		log.Info("tracking schema ready", slog.String("path", cfg.Path), slog.Uint64("version", uint64(version)))
	}

	s, err := New(db, cfg.CacheSize, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. The caller keeps ownership of db unless
// Close is called on the returned Source.
func New(db *sql.DB, cacheSize int, log *slog.Logger) (*Source, error) {
	s := &Source{db: db, log: logger.OrDiscard(log)}
	if cacheSize > 0 {
		c, err := lru.New[frameKey, simulator.Frame](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("frame cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Source) Close() error {
	return s.db.Close()
}

// Match implements simulator.DataSource.
func (s *Source) Match(ctx context.Context, matchID string) (simulator.MatchInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT m.match_id, m.home_team_id, ht.team_name, m.away_team_id, at.team_name
		FROM matches m
		JOIN teams ht ON m.home_team_id = ht.team_id
		JOIN teams at ON m.away_team_id = at.team_id
		WHERE m.match_id = ?
	`, matchID)

	var m simulator.MatchInfo
	err := row.Scan(&m.ID, &m.HomeTeamID, &m.HomeTeamName, &m.AwayTeamID, &m.AwayTeamName)
	if errors.Is(err, sql.ErrNoRows) {
		return simulator.MatchInfo{}, fmt.Errorf("%w: %s", simulator.ErrMatchNotFound, matchID)
	}
	if err != nil {
		return simulator.MatchInfo{}, fmt.Errorf("query match %s: %w", matchID, err)
	}
	return m, nil
}

// FrameIDs implements simulator.DataSource. Ids are distinct and ascending.
func (s *Source) FrameIDs(ctx context.Context, matchID string, rng simulator.FrameRange) ([]int64, error) {
	var (
		where = []string{"game_id = ?"}
		args  = []any{matchID}
	)
	if rng.Start != nil {
		where = append(where, "frame_id >= ?")
		args = append(args, *rng.Start)
	}
	if rng.End != nil {
		where = append(where, "frame_id <= ?")
		args = append(args, *rng.End)
	}
	query := fmt.Sprintf(
		"SELECT DISTINCT frame_id FROM player_tracking WHERE %s ORDER BY frame_id",
		strings.Join(where, " AND "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frame ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FrameSamples implements simulator.DataSource. The ball row is tagged with
// the reserved ball group and label and sorts last. A frame with no rows
// is returned empty.
func (s *Source) FrameSamples(ctx context.Context, matchID string, frameID int64) (simulator.Frame, error) {
	key := frameKey{match: matchID, frame: frameID}
	if s.cache != nil {
		if f, ok := s.cache.Get(key); ok {
			return copyFrame(f), nil
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.timestamp, pt.period_id, pt.player_id, pt.x, pt.y,
		       p.player_name, p.jersey_number, t.team_id, t.team_name
		FROM player_tracking pt
		LEFT JOIN players p ON pt.player_id = p.player_id
		LEFT JOIN teams t ON p.team_id = t.team_id
		WHERE pt.game_id = ? AND pt.frame_id = ?
		ORDER BY pt.player_id = ?, pt.player_id
	`, matchID, frameID, ballPlayerID)
	if err != nil {
		return simulator.Frame{}, fmt.Errorf("query frame %d: %w", frameID, err)
	}
	defer rows.Close()

	f := simulator.Frame{ID: float64(frameID), Real: true}
	for rows.Next() {
		var (
			ts       string
			period   int
			playerID string
			x, y     float64
			name     sql.NullString
			jersey   sql.NullInt64
			teamID   sql.NullString
			teamName sql.NullString
		)
		if err := rows.Scan(&ts, &period, &playerID, &x, &y, &name, &jersey, &teamID, &teamName); err != nil {
			return simulator.Frame{}, err
		}
		if len(f.Samples) == 0 {
			f.Timestamp, f.Period = ts, period
		}
		f.Samples = append(f.Samples, sample(playerID, x, y, name, jersey, teamID, teamName))
	}
	if err := rows.Err(); err != nil {
		return simulator.Frame{}, err
	}

	if s.cache != nil && len(f.Samples) > 0 {
		s.cache.Add(key, copyFrame(f))
	}
	return f, nil
}

func sample(playerID string, x, y float64, name sql.NullString, jersey sql.NullInt64, teamID, teamName sql.NullString) simulator.EntitySample {
	if playerID == ballPlayerID {
		return simulator.EntitySample{
			EntityID:  simulator.BallEntityID,
			Group:     simulator.BallGroup,
			GroupName: simulator.BallLabel,
			Label:     simulator.BallLabel,
			X:         x,
			Y:         y,
		}
	}
	es := simulator.EntitySample{
		EntityID:  simulator.EntityID(playerID),
		Group:     simulator.GroupID(teamID.String),
		GroupName: teamName.String,
		Label:     playerID,
		X:         x,
		Y:         y,
	}
	if name.Valid {
		es.Label = name.String
	}
	if jersey.Valid {
		n := int(jersey.Int64)
		es.Jersey = &n
	}
	return es
}

// Events implements simulator.DataSource. Events are ordered by timestamp.
func (s *Source) Events(ctx context.Context, matchID string) ([]simulator.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT me.timestamp, et.name, COALESCE(p.player_name, ''), COALESCE(t.team_name, '')
		FROM matchevents me
		JOIN eventtypes et ON me.eventtype_id = et.eventtype_id
		LEFT JOIN teams t ON me.team_id = t.team_id
		LEFT JOIN players p ON me.player_id = p.player_id
		WHERE me.match_id = ?
		ORDER BY me.timestamp, me.event_id
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []simulator.Event
	for rows.Next() {
		var e simulator.Event
		if err := rows.Scan(&e.Timestamp, &e.Name, &e.Actor, &e.Group); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// TeamPositions implements formation.PositionSource.
func (s *Source) TeamPositions(ctx context.Context, matchID, teamID, timestamp string) ([]formation.PlayerPosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.player_id, COALESCE(p.player_name, pt.player_id), pt.x, pt.y
		FROM player_tracking pt
		JOIN players p ON pt.player_id = p.player_id
		WHERE pt.game_id = ? AND p.team_id = ? AND pt.timestamp = ?
		ORDER BY pt.player_id
	`, matchID, teamID, timestamp)
	if err != nil {
		return nil, fmt.Errorf("query team positions: %w", err)
	}
	defer rows.Close()

	var out []formation.PlayerPosition
	for rows.Next() {
		var p formation.PlayerPosition
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.X, &p.Y); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TeamTimestamps implements formation.PositionSource.
func (s *Source) TeamTimestamps(ctx context.Context, matchID, teamID, from, to string) ([]string, error) {
	var (
		where = []string{"pt.game_id = ?", "p.team_id = ?"}
		args  = []any{matchID, teamID}
	)
	if from != "" {
		where = append(where, "pt.timestamp >= ?")
		args = append(args, from)
	}
	if to != "" {
		where = append(where, "pt.timestamp <= ?")
		args = append(args, to)
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT pt.timestamp
		FROM player_tracking pt
		JOIN players p ON pt.player_id = p.player_id
		WHERE %s
		ORDER BY pt.timestamp
	`, strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query team timestamps: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ts string
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func copyFrame(f simulator.Frame) simulator.Frame {
	f.Samples = append([]simulator.EntitySample(nil), f.Samples...)
	return f
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:") || strings.Contains(path, "mode=memory")
}
