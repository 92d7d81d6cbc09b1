package persistent

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	_ "github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

func PgOpen(ctx context.Context, pgDsn string) *bun.DB {
	db, err := pgConnect(ctx, pgDsn)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open pg database.")
	}
	if os.Getenv("DB_VERBOSE") == "true" {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func pgConnect(ctx context.Context, pgDsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("pg", pgDsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	if err = sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("sql ping: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// Create tables of all persistent models if they don't exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []interface{}{
		(*ActivityLog)(nil),
	}
	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create table %T: %w", model, err)
		}
	}
	_, err := db.NewCreateIndex().
		Model((*ActivityLog)(nil)).
		Index("activity_log_user_id_idx").
		IfNotExists().
		Column("user_id", "id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create activity log index: %w", err)
	}
	return nil
}

// Running integration tests requires real pg db instance, but we
// don't have enough time to start db for every test so we start db once
// and then pass datasource to as many tests as we want.

func PgOpenTest(ctx context.Context) *bun.DB {
	return PgOpen(ctx, TestEnvDsn())
}

func TestEnvDsn() string {
	return os.Getenv("PGDB_DSN")
}

func SetTestEnvDsn(dsn string) {
	os.Setenv("PGDB_DSN", dsn)
}
