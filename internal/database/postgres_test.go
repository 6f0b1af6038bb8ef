package database

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGormLoggerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	db, err := gorm.Open(sqlite.Open("file:gorm_logger?mode=memory&cache=shared"), &gorm.Config{
		Logger: GormLogger(log, logger.Error),
	})
	require.NoError(t, err)

	var count int64
	require.Error(t, db.Raw("SELECT count(*) FROM missing_table").Scan(&count).Error)

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.Split(line, "\n")[0]), &entry))
	require.Equal(t, "gorm", entry["component"])
	require.Contains(t, entry["message"], "missing_table")
}

func TestGormLoggerSilentLevelWritesNothing(t *testing.T) {
	var buf bytes.Buffer

	db, err := gorm.Open(sqlite.Open("file:gorm_logger_silent?mode=memory&cache=shared"), &gorm.Config{
		Logger: GormLogger(zerolog.New(&buf), logger.Silent),
	})
	require.NoError(t, err)

	var count int64
	require.Error(t, db.Raw("SELECT count(*) FROM missing_table").Scan(&count).Error)
	require.Empty(t, buf.String())
}

func TestConnectPostgresRequiresDSN(t *testing.T) {
	_, err := ConnectPostgres("", PoolOptions{}, zerolog.Nop(), false)
	require.Error(t, err)
}
