package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const createEditorTablesSQL = `
CREATE TABLE IF NOT EXISTS question_bank (
    source_id       TEXT PRIMARY KEY,
    kind            TEXT NOT NULL,
    prompt          TEXT NOT NULL,
    choices         JSONB,
    correct_choices JSONB,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS question_bank_kind_idx ON question_bank (kind);

CREATE TABLE IF NOT EXISTS lessons (
    id           TEXT PRIMARY KEY,
    authored     JSONB NOT NULL DEFAULT '[]'::jsonb,
    imported_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createEditorTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`DROP TABLE IF EXISTS lessons; DROP TABLE IF EXISTS question_bank`)
			return err
		},
	)
}
