package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/spectators/internal/data"
)

// WorldRepo stores the same regions and spawns as the YAML world file.
type WorldRepo struct {
	db *DB
}

func NewWorldRepo(db *DB) *WorldRepo {
	return &WorldRepo{db: db}
}

// Load reads every region and spawn.
func (r *WorldRepo) Load(ctx context.Context) (*data.WorldData, error) {
	regions, err := r.loadRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	spawns, err := r.LoadSpawns(ctx)
	if err != nil {
		return nil, fmt.Errorf("load spawns: %w", err)
	}
	return &data.WorldData{Regions: regions, Spawns: spawns}, nil
}

func (r *WorldRepo) loadRegions(ctx context.Context) ([]data.Region, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, start_x, start_y, end_x, end_y FROM world_regions ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []data.Region
	for rows.Next() {
		var reg data.Region
		if err := rows.Scan(&reg.Name, &reg.StartX, &reg.StartY, &reg.EndX, &reg.EndY); err != nil {
			return nil, err
		}
		result = append(result, reg)
	}
	return result, rows.Err()
}

// LoadSpawns returns every creature spawn in insertion order.
func (r *WorldRepo) LoadSpawns(ctx context.Context) ([]data.SpawnEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, kind, x, y, z, wander_range FROM creature_spawns ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []data.SpawnEntry
	for rows.Next() {
		var (
			s    data.SpawnEntry
			x, y int32
			z    int16
		)
		if err := rows.Scan(&s.Name, &s.Kind, &x, &y, &z, &s.WanderRange); err != nil {
			return nil, err
		}
		s.X, s.Y, s.Z = uint16(x), uint16(y), uint8(z)
		result = append(result, s)
	}
	return result, rows.Err()
}

// Replace swaps the stored world for w in one transaction.
func (r *WorldRepo) Replace(ctx context.Context, w *data.WorldData) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("world begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM creature_spawns`); err != nil {
		return fmt.Errorf("clear spawns: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM world_regions`); err != nil {
		return fmt.Errorf("clear regions: %w", err)
	}
	for _, reg := range w.Regions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO world_regions (name, start_x, start_y, end_x, end_y) VALUES ($1, $2, $3, $4, $5)`,
			reg.Name, reg.StartX, reg.StartY, reg.EndX, reg.EndY,
		); err != nil {
			return fmt.Errorf("insert region %s: %w", reg.Name, err)
		}
	}
	for _, s := range w.Spawns {
		if _, err := tx.Exec(ctx,
			`INSERT INTO creature_spawns (name, kind, x, y, z, wander_range) VALUES ($1, $2, $3, $4, $5, $6)`,
			s.Name, s.Kind, int32(s.X), int32(s.Y), int16(s.Z), s.WanderRange,
		); err != nil {
			return fmt.Errorf("insert spawn %s: %w", s.Name, err)
		}
	}
	return tx.Commit(ctx)
}
