package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_trivia.sql
var createTriviaSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createTriviaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS user_answers;
				DROP TABLE IF EXISTS trivia_questions;
				DROP TABLE IF EXISTS leaderboard;
				DROP TABLE IF EXISTS community_config`)
			return err
		},
	)
}
