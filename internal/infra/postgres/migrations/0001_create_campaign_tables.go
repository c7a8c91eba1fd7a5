package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_campaign_tables.sql
var createCampaignTablesSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createCampaignTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS votes;
				DROP TABLE IF EXISTS quiz_sessions;
				DROP TABLE IF EXISTS questions;
				DROP TABLE IF EXISTS participants;
			`)
			return err
		},
	)
}
