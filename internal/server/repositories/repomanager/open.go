package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/gophchat/internal/server/migrations"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

type dialect struct {
	sqlDriver    string
	gooseDialect string
	dir          string
	placeholder  sq.PlaceholderFormat
}

var dialects = map[string]dialect{
	DriverSQLite: {
		sqlDriver:    "sqlite3",
		gooseDialect: "sqlite3",
		dir:          migrations.SQLiteDir,
		placeholder:  sq.Question,
	},
	DriverPostgres: {
		sqlDriver:    "pgx",
		gooseDialect: "postgres",
		dir:          migrations.PostgresDir,
		placeholder:  sq.Dollar,
	},
}

// SQLRepositoryManager vends SQL-backed repositories sharing one *sql.DB.
type SQLRepositoryManager struct {
	db    *sql.DB
	users users.Repository
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

// MemoryRepositoryManager keeps everything in process memory.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}

// Open connects to the database selected by driver and brings its schema
// up to date. An empty dsn selects DefaultSQLiteDSN for the sqlite driver.
func Open(ctx context.Context, driver, dsn string) (RepositoryManager, error) {
	if driver == DriverMemory {
		return NewMemoryRepositoryManager(), nil
	}

	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if dsn == "" {
		if driver != DriverSQLite {
			return nil, fmt.Errorf("database dsn is required for driver %q", driver)
		}
		dsn = DefaultSQLiteDSN
	}

	db, err := sqlOpen(d.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := runMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &SQLRepositoryManager{
		db:    db,
		users: users.NewSQLRepository(db, d.placeholder),
	}, nil
}

func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(d.gooseDialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, d.dir)
}
