package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/l1jgo/itemstack/internal/item"
)

// Journal actions.
const (
	ActionStore = "store"
	ActionEdit  = "edit"
)

// JournalEntry records one change to an item record.
type JournalEntry struct {
	Action      string
	Holder      string
	Owner       string // plugin that edited the record, empty for stores
	ItemType    string
	Quantity    int64
	Fingerprint []byte
}

// EditEntry journals an edit of rec made by owner.
func EditEntry(holder, owner string, rec *item.Record) JournalEntry {
	return JournalEntry{
		Action:      ActionEdit,
		Holder:      holder,
		Owner:       owner,
		ItemType:    rec.ItemType(),
		Quantity:    int64(rec.Quantity()),
		Fingerprint: fingerprintKey(rec),
	}
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Write atomically writes a batch of entries in a single transaction.
func (r *JournalRepo) Write(ctx context.Context, entries []JournalEntry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := writeJournal(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func writeJournal(ctx context.Context, tx pgx.Tx, entries []JournalEntry) error {
	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO item_journal (action, holder, owner, item_type, quantity, fingerprint)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.Action, e.Holder, e.Owner, e.ItemType, e.Quantity, e.Fingerprint,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}
	return nil
}

// MarkProcessed marks all pending entries as processed and returns how
// many there were.
func (r *JournalRepo) MarkProcessed(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE item_journal SET processed = TRUE WHERE processed = FALSE`,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
