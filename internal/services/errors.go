package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueFailure  = "unique constraint failed"
	genericDuplicateHint = "duplicate key"
)

// isDuplicateKey reports whether err is a unique index violation on any of
// the supported drivers. Other constraint failures (foreign keys, not null)
// are not duplicates.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if pgErr := (*pgconn.PgError)(nil); errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if myErr := (*mysql.MySQLError)(nil); errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, sqliteUniqueFailure) || strings.Contains(msg, genericDuplicateHint)
}
