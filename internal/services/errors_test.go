package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	require.False(t, isDuplicateKey(nil))
	require.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	require.True(t, isDuplicateKey(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, isDuplicateKey(&pgconn.PgError{Code: "23503"}))
	require.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062}))
	require.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1452}))
	require.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: dealerships.tenant_id, dealerships.domain")))
	require.False(t, isDuplicateKey(errors.New("FOREIGN KEY constraint failed")))
}
