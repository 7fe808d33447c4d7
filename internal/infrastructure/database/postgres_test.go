package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_AppliesPoolLimits(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	Configure(db, Config{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: time.Minute})

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}
