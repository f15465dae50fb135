package database

import (
	"fmt"

	"makerchecker-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - Partial index for pending-request lookups
// - Postgres only: CHECK constraints
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Request{},
			&models.Article{},
			&models.Customer{},
			&models.Supplier{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_requests_pending_fingerprint ON requests (fingerprint) WHERE status = 'pending'`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		if !isPostgres(tx) {
			return nil
		}

		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'requests'::regclass
					  AND conname  = 'chk_requests_status'
				) THEN
					ALTER TABLE requests
					ADD CONSTRAINT chk_requests_status
					CHECK (status IN ('pending','processing','approved','rejected','expired','failed'));
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'requests'::regclass
					  AND conname  = 'chk_requests_subject_pair'
				) THEN
					ALTER TABLE requests
					ADD CONSTRAINT chk_requests_subject_pair
					CHECK (subject_id IS NULL OR subject_type IS NOT NULL);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'articles'::regclass
					  AND conname  = 'chk_articles_unit_price_nonneg'
				) THEN
					ALTER TABLE articles
					ADD CONSTRAINT chk_articles_unit_price_nonneg
					CHECK (unit_price >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
