package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/l1jgo/itemstack/internal/item"
	"go.uber.org/zap"
)

// RecordRow is a persisted item record. Attributes are always stored in
// plain form.
type RecordRow struct {
	ID          uuid.UUID
	Holder      string
	Slot        int32
	ItemType    string
	Quantity    int64
	Attributes  string
	Fingerprint []byte
}

// Record rebuilds the item record in env.
func (row RecordRow) Record(env *item.Env) *item.Record {
	return env.FromParts(row.ItemType, int(row.Quantity), row.Attributes)
}

// NewRecordRow flattens rec for storage in holder's slot.
func NewRecordRow(holder string, slot int, rec *item.Record) (RecordRow, error) {
	attrs, err := rec.Encoded()
	if err != nil {
		return RecordRow{}, fmt.Errorf("slot %d: %w", slot, err)
	}
	return RecordRow{
		ID:          uuid.New(),
		Holder:      holder,
		Slot:        int32(slot),
		ItemType:    rec.ItemType(),
		Quantity:    int64(rec.Quantity()),
		Attributes:  attrs,
		Fingerprint: fingerprintKey(rec),
	}, nil
}

// fingerprintKey is the indexed fingerprint column value for rec.
func fingerprintKey(rec *item.Record) []byte {
	fp := rec.Fingerprint()
	return fp[:]
}

type RecordRepo struct {
	db *DB
}

func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// LoadInventory returns a holder's records in slot order.
func (r *RecordRepo) LoadInventory(ctx context.Context, env *item.Env, holder string) ([]*item.Record, error) {
	rows, err := r.query(ctx,
		`SELECT id, holder, slot, item_type, quantity, attributes, fingerprint
		 FROM item_records WHERE holder = $1 ORDER BY slot`, holder,
	)
	if err != nil {
		return nil, err
	}
	out := make([]*item.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Record(env))
	}
	return out, nil
}

// FindByFingerprint returns every stored record with the same type and
// attributes as rec, whatever its quantity or holder.
func (r *RecordRepo) FindByFingerprint(ctx context.Context, rec *item.Record) ([]RecordRow, error) {
	return r.query(ctx,
		`SELECT id, holder, slot, item_type, quantity, attributes, fingerprint
		 FROM item_records WHERE fingerprint = $1 ORDER BY holder, slot`, fingerprintKey(rec),
	)
}

func (r *RecordRepo) query(ctx context.Context, sql string, args ...any) ([]RecordRow, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RecordRow
	for rows.Next() {
		var it RecordRow
		if err := rows.Scan(
			&it.ID, &it.Holder, &it.Slot, &it.ItemType,
			&it.Quantity, &it.Attributes, &it.Fingerprint,
		); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// SaveInventory replaces all records of a holder (delete + bulk insert)
// and journals the save in the same transaction.
func (r *RecordRepo) SaveInventory(ctx context.Context, holder string, records []*item.Record) error {
	rows := make([]RecordRow, 0, len(records))
	for i, rec := range records {
		row, err := NewRecordRow(holder, i, rec)
		if err != nil {
			return fmt.Errorf("save inventory %s: %w", holder, err)
		}
		rows = append(rows, row)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM item_records WHERE holder = $1`, holder); err != nil {
		return err
	}

	journal := make([]JournalEntry, 0, len(rows))
	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO item_records (id, holder, slot, item_type, quantity, attributes, fingerprint)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			row.ID, row.Holder, row.Slot, row.ItemType, row.Quantity, row.Attributes, row.Fingerprint,
		); err != nil {
			return err
		}
		journal = append(journal, JournalEntry{
			Action:      ActionStore,
			Holder:      holder,
			ItemType:    row.ItemType,
			Quantity:    row.Quantity,
			Fingerprint: row.Fingerprint,
		})
	}
	if err := writeJournal(ctx, tx, journal); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.db.log.Debug("saved inventory", zap.String("holder", holder), zap.Int("records", len(rows)))
	return nil
}
