package postgres

import (
	"database/sql"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// driverName is the database/sql name registered by the pgx stdlib adapter.
const driverName = "pgx"

// PoolConfig bounds the shared connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connections holds the two views of one traced connection pool: GORM for the
// command side and sqlx for the read-only queries.
type Connections struct {
	SQL  *sql.DB
	Gorm *gorm.DB
	Sqlx *sqlx.DB
}

// Open connects to PostgreSQL through pgx with OpenTelemetry instrumentation
// and wraps the pool for GORM and sqlx.
func Open(dsn string, pool PoolConfig) (*Connections, error) {
	sqlDB, err := otelsql.Open(driverName, dsn, otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, err
	}

	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	gormDB, err := NewGorm(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Connections{
		SQL:  sqlDB,
		Gorm: gormDB,
		Sqlx: sqlx.NewDb(sqlDB, driverName),
	}, nil
}

// NewGorm wraps an existing pool. The schema is owned by the migrations, so
// GORM never creates or alters tables.
func NewGorm(sqlDB *sql.DB) (*gorm.DB, error) {
	return gorm.Open(postgresdriver.New(postgresdriver.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
}

// Close releases the shared pool.
func (c *Connections) Close() error {
	return c.SQL.Close()
}
