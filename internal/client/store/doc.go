// Package store provides the client-side persistence layer for the session
// record.
//
// # Overview
//
// The package defines a Store interface: a small key/value contract with an
// Update method for atomic multi-key writes. Two implementations exist:
//
//   - MemoryStore: a mutex-guarded map, used in tests and for ephemeral runs.
//   - SQLiteStore: rows of the `session` table, accessed through dbx.DBTX so
//     the same code runs on *sql.DB and inside a *sql.Tx. Values can be sealed
//     at rest (see NewSealedSQLiteStore).
//
// Get returns (nil, nil) for absent keys in every implementation.
//
// Typical Usage
//
//	db, _ := store.OpenDatabase(ctx, "session.db")
//	st := store.NewSQLiteStore(db)
//	_ = st.Update(ctx, func(ctx context.Context, tx store.Store) error {
//	    if err := tx.Set(ctx, "accessToken", []byte("a1")); err != nil {
//	        return err
//	    }
//	    return tx.Set(ctx, "refreshToken", []byte("r1"))
//	})
package store
