package repo

import "database/sql"

// Migrations retorna os statements de schema do motor de liquidação.
// A chave única (reference_id, reason, field) em ledger_entries é o mecanismo
// primário de idempotência: um retry da mesma operação colide aqui e vira
// no-op, independente de qualquer guarda externa.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL UNIQUE,
			credit_cents         BIGINT NOT NULL DEFAULT 0 CHECK (credit_cents >= 0),
			bonus_cents          BIGINT NOT NULL DEFAULT 0 CHECK (bonus_cents >= 0),
			exposure_cents       BIGINT NOT NULL DEFAULT 0 CHECK (exposure_cents <= 0),
			exposure_limit_cents BIGINT NOT NULL DEFAULT -1000000,
			wagering_cents       BIGINT NOT NULL DEFAULT 0,
			version              BIGINT NOT NULL DEFAULT 1,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id                  TEXT PRIMARY KEY,
			account_id          TEXT NOT NULL REFERENCES accounts(id),
			entry_type          TEXT NOT NULL CHECK (entry_type IN ('CREDIT','DEBIT')),
			field               TEXT NOT NULL CHECK (field IN ('credit','bonus','exposure')),
			amount_cents        BIGINT NOT NULL CHECK (amount_cents >= 0),
			reason              TEXT NOT NULL,
			reference_id        TEXT NOT NULL,
			balance_after_cents BIGINT NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (reference_id, reason, field)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account ON ledger_entries(account_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS funding_requests (
			id                  TEXT PRIMARY KEY,
			user_id             TEXT NOT NULL,
			kind                TEXT NOT NULL CHECK (kind IN ('deposit','withdrawal')),
			amount_cents        BIGINT NOT NULL CHECK (amount_cents > 0),
			status              TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
			bank_reference      TEXT NOT NULL DEFAULT '',
			offer_id            TEXT NOT NULL DEFAULT '',
			bonus_awarded_cents BIGINT NOT NULL DEFAULT 0,
			remark              TEXT NOT NULL DEFAULT '',
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			decided_at          TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_funding_user ON funding_requests(user_id, status)`,

		`CREATE TABLE IF NOT EXISTS bets (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL,
			stake_cents          BIGINT NOT NULL CHECK (stake_cents > 0),
			bonus_used_cents     BIGINT NOT NULL DEFAULT 0 CHECK (bonus_used_cents >= 0),
			balance_before_cents BIGINT NOT NULL DEFAULT 0,
			balance_after_cents  BIGINT,
			liability_cents      BIGINT NOT NULL DEFAULT 0 CHECK (liability_cents <= 0),
			status               TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN','WON','LOST','VOID')),
			pnl_cents            BIGINT NOT NULL DEFAULT 0,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
			settled_at           TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_user ON bets(user_id, status)`,
	}
}

// Migrate aplica o schema; statements são idempotentes (IF NOT EXISTS).
func Migrate(db *sql.DB) error {
	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
