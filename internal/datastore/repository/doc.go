// Package repository provides gorm-backed access to the progress tables.
//
// # Transactions
//
// Every constructor takes a *gorm.DB. Pass a transaction handle to run the
// repository inside it:
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//	    dialects := repository.NewDialectRepository(tx)
//	    recordings := repository.NewRecordingRepository(tx)
//	    ...
//	})
//
// # Error Handling
//
// Repositories return the sentinel errors of this package (ErrDialectNotFound,
// ErrDuplicateKey, ...) instead of leaking gorm or driver errors.
//
// # Required Schema Constraints
//
// Exclusive recording relies on UNIQUE(dialect_id, sentence_id) on
// recordings and the composite primary key of dialect_sentences. Both are
// created by AutoMigrate from the entity tags.
package repository
