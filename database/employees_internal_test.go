package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveAdminsQueryLocksOnPostgres(t *testing.T) {
	assert.True(t, strings.HasSuffix(activeAdminsQuery(DriverPostgres), "FOR UPDATE"))
	assert.NotContains(t, activeAdminsQuery(DriverSQLite), "FOR UPDATE")
}
