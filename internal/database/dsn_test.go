package database

import (
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "dealerai", Name: "dealerai"})
	require.NoError(t, err)
	require.Equal(t, "postgres://dealerai@localhost:5432/dealerai?sslmode=disable", dsn)
}

func TestBuildPostgresDSNEscapesCredentials(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "svc",
		Name:     "dealerai",
		Host:     "db.example.com",
		Port:     6543,
		Password: "p@ss word/1",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)

	parsed, err := pgconn.ParseConfig(dsn)
	require.NoError(t, err)
	require.Equal(t, "db.example.com", parsed.Host)
	require.Equal(t, uint16(6543), parsed.Port)
	require.Equal(t, "svc", parsed.User)
	require.Equal(t, "p@ss word/1", parsed.Password)
	require.Equal(t, "dealerai", parsed.Database)
	require.Equal(t, "public", parsed.RuntimeParams["search_path"])
	require.NotNil(t, parsed.TLSConfig)
}

func TestBuildPostgresDSNOverride(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://u:p@h/db"})
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@h/db", dsn)
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "dealerai", Name: "dealerai"})
	require.NoError(t, err)

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "dealerai", parsed.User)
	require.Equal(t, "127.0.0.1:3306", parsed.Addr)
	require.Equal(t, "dealerai", parsed.DBName)
	require.True(t, parsed.ParseTime)
	require.Equal(t, time.UTC, parsed.Loc)
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "se:cr@t",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options:  map[string]string{"tls": "skip-verify", "timeout": "5s"},
	})
	require.NoError(t, err)

	parsed, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "se:cr@t", parsed.Passwd)
	require.Equal(t, "db.example.com:3307", parsed.Addr)
	require.Equal(t, "skip-verify", parsed.TLSConfig)
	require.Equal(t, 5*time.Second, parsed.Timeout)
}

func TestBuildMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}
