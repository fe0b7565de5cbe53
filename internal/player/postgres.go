package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orbitalworks/salvage-exchange/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed player store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Init creates the player tables if they do not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			credits          BIGINT NOT NULL DEFAULT 0,
			progression_path TEXT NOT NULL DEFAULT 'rogue',
			position_x       DOUBLE PRECISION NOT NULL DEFAULT 0,
			position_y       DOUBLE PRECISION NOT NULL DEFAULT 0,
			position_z       DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS upgrades (
			player_id    TEXT NOT NULL REFERENCES players(id),
			upgrade_type TEXT NOT NULL,
			level        INTEGER NOT NULL DEFAULT 0,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (player_id, upgrade_type)
		);
		CREATE TABLE IF NOT EXISTS inventory (
			id         BIGSERIAL PRIMARY KEY,
			player_id  TEXT NOT NULL REFERENCES players(id),
			item_id    TEXT NOT NULL,
			item_type  TEXT NOT NULL,
			quantity   INTEGER NOT NULL,
			value      BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS zones (
			player_id    TEXT NOT NULL REFERENCES players(id),
			zone_id      TEXT NOT NULL,
			access_level INTEGER NOT NULL DEFAULT 0,
			last_visited TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (player_id, zone_id)
		)`)
	if err != nil {
		return fmt.Errorf("init player schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPlayer(ctx context.Context, playerID string) (*model.Player, error) {
	var p model.Player
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, credits, progression_path, position_x, position_y, position_z
		 FROM players WHERE id = $1`, playerID).
		Scan(&p.PlayerID, &p.Name, &p.Credits, &p.ProgressionPath,
			&p.Position.X, &p.Position.Y, &p.Position.Z)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", playerID, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT upgrade_type, level FROM upgrades WHERE player_id = $1`, playerID)
	if err != nil {
		return nil, fmt.Errorf("get upgrades for %s: %w", playerID, err)
	}
	defer rows.Close()

	p.Upgrades = make(map[string]int)
	for rows.Next() {
		var kind string
		var level int
		if err := rows.Scan(&kind, &level); err != nil {
			return nil, err
		}
		p.Upgrades[kind] = level
	}
	return &p, rows.Err()
}

func (s *PostgresStore) SavePlayer(ctx context.Context, p *model.Player) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, name, credits, progression_path, position_x, position_y, position_z)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    credits = EXCLUDED.credits,
		    progression_path = EXCLUDED.progression_path,
		    position_x = EXCLUDED.position_x,
		    position_y = EXCLUDED.position_y,
		    position_z = EXCLUDED.position_z,
		    updated_at = NOW()`,
		p.PlayerID, p.Name, p.Credits, p.ProgressionPath,
		p.Position.X, p.Position.Y, p.Position.Z)
	if err != nil {
		return fmt.Errorf("save player %s: %w", p.PlayerID, err)
	}

	for kind, level := range p.Upgrades {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO upgrades (player_id, upgrade_type, level)
			VALUES ($1, $2, $3)
			ON CONFLICT (player_id, upgrade_type)
			DO UPDATE SET level = EXCLUDED.level, updated_at = NOW()`,
			p.PlayerID, kind, level)
		if err != nil {
			return fmt.Errorf("save upgrade %s for %s: %w", kind, p.PlayerID, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListInventory(ctx context.Context, playerID string) ([]model.InventoryItem, error) {
	if err := s.playerExists(ctx, playerID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT item_id, item_type, quantity, value, EXTRACT(EPOCH FROM created_at)
		 FROM inventory WHERE player_id = $1 ORDER BY created_at`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list inventory for %s: %w", playerID, err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.ItemID, &item.ItemType, &item.Quantity, &item.Value, &item.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) AddInventoryItem(ctx context.Context, playerID string, item model.InventoryItem) error {
	if err := s.playerExists(ctx, playerID); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO inventory (player_id, item_id, item_type, quantity, value)
		VALUES ($1, $2, $3, $4, $5)`,
		playerID, item.ItemID, item.ItemType, item.Quantity, item.Value)
	if err != nil {
		return fmt.Errorf("add inventory item for %s: %w", playerID, err)
	}
	return nil
}

func (s *PostgresStore) ClearInventory(ctx context.Context, playerID string) ([]model.InventoryItem, error) {
	if err := s.playerExists(ctx, playerID); err != nil {
		return nil, err
	}

	// Single statement so every deleted row is also the reported row.
	rows, err := s.pool.Query(ctx, `
		DELETE FROM inventory WHERE player_id = $1
		RETURNING item_id, item_type, quantity, value, EXTRACT(EPOCH FROM created_at)`,
		playerID)
	if err != nil {
		return nil, fmt.Errorf("clear inventory for %s: %w", playerID, err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.ItemID, &item.ItemType, &item.Quantity, &item.Value, &item.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) AdjustCredits(ctx context.Context, playerID string, delta int64) (int64, int64, error) {
	var oldCredits, newCredits int64
	err := s.pool.QueryRow(ctx, `
		WITH before AS (
			SELECT credits FROM players WHERE id = $1
		)
		UPDATE players
		SET credits = GREATEST(0, credits + $2), updated_at = NOW()
		WHERE id = $1
		RETURNING (SELECT credits FROM before), credits`,
		playerID, delta).Scan(&oldCredits, &newCredits)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("adjust credits for %s: %w", playerID, err)
	}
	return oldCredits, newCredits, nil
}

func (s *PostgresStore) ListZones(ctx context.Context, playerID string) ([]model.ZoneAccess, error) {
	if err := s.playerExists(ctx, playerID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT zone_id, access_level, EXTRACT(EPOCH FROM last_visited)
		FROM zones WHERE player_id = $1 ORDER BY zone_id`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list zones for %s: %w", playerID, err)
	}
	defer rows.Close()

	var zones []model.ZoneAccess
	for rows.Next() {
		zone := model.ZoneAccess{PlayerID: playerID}
		if err := rows.Scan(&zone.ZoneID, &zone.AccessLevel, &zone.LastVisited); err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	return zones, rows.Err()
}

func (s *PostgresStore) GrantZone(ctx context.Context, playerID, zoneID string, accessLevel int) (*model.ZoneAccess, error) {
	if err := s.playerExists(ctx, playerID); err != nil {
		return nil, err
	}

	zone := model.ZoneAccess{ZoneID: zoneID, PlayerID: playerID, AccessLevel: accessLevel}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO zones (player_id, zone_id, access_level, last_visited)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (player_id, zone_id)
		DO UPDATE SET access_level = EXCLUDED.access_level, last_visited = NOW()
		RETURNING EXTRACT(EPOCH FROM last_visited)`,
		playerID, zoneID, accessLevel).Scan(&zone.LastVisited)
	if err != nil {
		return nil, fmt.Errorf("grant zone %s for %s: %w", zoneID, playerID, err)
	}
	return &zone, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM players),
		       (SELECT COUNT(*) FROM inventory),
		       (SELECT COUNT(*) FROM zones)`).
		Scan(&st.TotalPlayers, &st.TotalInventoryItems, &st.TotalZones)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) playerExists(ctx context.Context, playerID string) error {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT id FROM players WHERE id = $1`, playerID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check player %s: %w", playerID, err)
	}
	return nil
}
