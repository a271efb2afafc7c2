package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arpgcore/internal/save"
)

// SaveRepository stores save records in the saves table. It satisfies save.Store.
type SaveRepository struct {
	db *pgxpool.Pool
}

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with migrations applied.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

const saveColumns = `character_id, version, name, class, level, xp,
	base_str, base_int, base_agi, allocated_str, allocated_int, allocated_agi,
	available_points, pos_x, pos_y, unlocked_abilities, saved_at`

// Save upserts r keyed by its character ID.
//
// Precondition: r must pass Validate.
// Postcondition: the stored row carries save.CurrentVersion.
func (r *SaveRepository) Save(ctx context.Context, rec save.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	xp := rec.Progression.XP
	if xp == nil {
		xp = new(big.Int)
	}
	abilities := rec.UnlockedAbilities
	if abilities == nil {
		abilities = []string{}
	}
	p := rec.Progression
	_, err := r.db.Exec(ctx, `
		INSERT INTO saves (`+saveColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (character_id) DO UPDATE SET
			version = EXCLUDED.version,
			name = EXCLUDED.name,
			class = EXCLUDED.class,
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			base_str = EXCLUDED.base_str,
			base_int = EXCLUDED.base_int,
			base_agi = EXCLUDED.base_agi,
			allocated_str = EXCLUDED.allocated_str,
			allocated_int = EXCLUDED.allocated_int,
			allocated_agi = EXCLUDED.allocated_agi,
			available_points = EXCLUDED.available_points,
			pos_x = EXCLUDED.pos_x,
			pos_y = EXCLUDED.pos_y,
			unlocked_abilities = EXCLUDED.unlocked_abilities,
			saved_at = EXCLUDED.saved_at,
			updated_at = NOW()`,
		rec.CharacterID, save.CurrentVersion, rec.Name, rec.Class, p.Level,
		pgtype.Numeric{Int: xp, Valid: true},
		p.BaseStats.Strength, p.BaseStats.Intelligence, p.BaseStats.Agility,
		p.AllocatedStats.Strength, p.AllocatedStats.Intelligence, p.AllocatedStats.Agility,
		p.AvailablePoints, rec.Position.X, rec.Position.Y, abilities, rec.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting save %s: %w", rec.CharacterID, err)
	}
	return nil
}

// Load retrieves the record for id.
//
// Postcondition: Returns an error wrapping save.ErrSaveNotFound when no row exists.
func (r *SaveRepository) Load(ctx context.Context, id uuid.UUID) (save.Record, error) {
	rec, err := scanSave(r.db.QueryRow(ctx, `SELECT `+saveColumns+` FROM saves WHERE character_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return save.Record{}, fmt.Errorf("%w: %s", save.ErrSaveNotFound, id)
	}
	if err != nil {
		return save.Record{}, fmt.Errorf("loading save %s: %w", id, err)
	}
	return rec, nil
}

// ListByName returns every save for characters called name, newest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *SaveRepository) ListByName(ctx context.Context, name string) ([]save.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+saveColumns+` FROM saves WHERE name = $1 ORDER BY saved_at DESC, character_id`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	out := make([]save.Record, 0)
	for rows.Next() {
		rec, err := scanSave(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning save row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the record for id.
//
// Postcondition: Returns an error wrapping save.ErrSaveNotFound when no row exists.
func (r *SaveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM saves WHERE character_id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting save %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", save.ErrSaveNotFound, id)
	}
	return nil
}

func scanSave(row pgx.Row) (save.Record, error) {
	var (
		rec save.Record
		xp  pgtype.Numeric
	)
	p := &rec.Progression
	if err := row.Scan(
		&rec.CharacterID, &rec.Version, &rec.Name, &rec.Class, &p.Level, &xp,
		&p.BaseStats.Strength, &p.BaseStats.Intelligence, &p.BaseStats.Agility,
		&p.AllocatedStats.Strength, &p.AllocatedStats.Intelligence, &p.AllocatedStats.Agility,
		&p.AvailablePoints, &rec.Position.X, &rec.Position.Y, &rec.UnlockedAbilities, &rec.SavedAt,
	); err != nil {
		return save.Record{}, err
	}
	v, err := numericToInt(xp)
	if err != nil {
		return save.Record{}, err
	}
	p.XP = v
	return rec, nil
}

// numericToInt converts an integral NUMERIC to a big.Int.
func numericToInt(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, fmt.Errorf("xp is not a finite number")
	}
	v := new(big.Int)
	if n.Int != nil {
		v.Set(n.Int)
	}
	if n.Exp == 0 {
		return v, nil
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(n.Exp))), nil)
	if n.Exp > 0 {
		return v.Mul(v, pow), nil
	}
	q, m := new(big.Int).QuoRem(v, pow, new(big.Int))
	if m.Sign() != 0 {
		return nil, fmt.Errorf("xp %s is not integral", n.Int)
	}
	return q, nil
}

func abs(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
