package yakeystore

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	// Registers the pure Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// FieldID is the primary key column of the key_records table.
const FieldID = "id"

// Gorm stores one KeyRecord per row. Expired rows are hidden from Load and
// Delete; they are not purged.
type Gorm struct {
	poolDB *gorm.DB
	ttl    time.Duration
}

// OpenSQLite opens a SQLite database at path through the modernc driver.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*gorm.DB, yaerrors.Error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GORM] failed to open sqlite",
		)
	}

	// Each connection of an in-memory database is a separate database.
	sqlDB.SetMaxOpenConns(1)

	poolDB, err := gorm.Open(
		sqlite.Dialector{
			Conn:       sqlDB,
			DriverName: "sqlite",
		},
		&gorm.Config{},
	)
	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GORM] failed to connect",
		)
	}

	return poolDB, nil
}

// NewGorm migrates the key_records table and returns the store.
func NewGorm(poolDB *gorm.DB, ttl time.Duration) (*Gorm, yaerrors.Error) {
	if err := poolDB.AutoMigrate(&KeyRecord{}); err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GORM] failed to make auto migrate",
		)
	}

	return &Gorm{poolDB: poolDB, ttl: ttl}, nil
}

func (g *Gorm) Save(ctx context.Context, record *KeyRecord) yaerrors.Error {
	stored := *record
	if g.ttl > 0 {
		stored.ExpiresAt = time.Now().Add(g.ttl)
	}

	if err := g.poolDB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&stored).Error; err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GORM] failed to save key record",
		)
	}

	return nil
}

func (g *Gorm) Load(ctx context.Context, id string) (*KeyRecord, yaerrors.Error) {
	var record KeyRecord

	err := g.poolDB.WithContext(ctx).
		Where(FieldID+" = ?", id).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}

	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GORM] failed to load key record",
		)
	}

	if record.expired(time.Now()) {
		return nil, notFound(id)
	}

	return &record, nil
}

func (g *Gorm) Delete(ctx context.Context, id string) yaerrors.Error {
	if _, err := g.Load(ctx, id); err != nil {
		return err.Wrap("[GORM] failed to delete key record")
	}

	if err := g.poolDB.WithContext(ctx).
		Where(FieldID+" = ?", id).
		Delete(&KeyRecord{}).Error; err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GORM] failed to delete key record",
		)
	}

	return nil
}

func (g *Gorm) Ping(ctx context.Context) yaerrors.Error {
	sqlDB, err := g.poolDB.DB()
	if err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GORM] failed to get sql handle",
		)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[GORM] failed to ping",
		)
	}

	return nil
}
