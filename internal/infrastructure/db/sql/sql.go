// Package sql persists users and refunds in a relational database via gorm.
// Postgres is the production driver; SQLite backs local runs and tests.
package sql

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/expensehub/refund-api/internal/core/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects with the named driver and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("sql: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userModel{}, &refundModel{}); err != nil {
		return fmt.Errorf("sql migrate: %w", err)
	}
	return nil
}

// Pinger adapts the pool to the readiness check.
type Pinger struct {
	DB *gorm.DB
}

func (p Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// nameLike narrows q to rows whose name contains name, ignoring case.
func nameLike(q *gorm.DB, name string) *gorm.DB {
	if name == "" {
		return q
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(name)) + "%"
	return q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
}

func page(q *gorm.DB, p domain.Page) *gorm.DB {
	return q.Order("created_at DESC").Order("id ASC").Offset(p.Skip()).Limit(p.PerPage)
}
