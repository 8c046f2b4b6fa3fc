package main

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The seed statement must only reference columns the users migration
// actually creates, or the binary dies at startup.
func TestSeedStatementMatchesSchema(t *testing.T) {
	migration, err := os.ReadFile("../../db/migrations/000001_init.up.sql")
	require.NoError(t, err)

	usersDDL := string(migration)
	start := strings.Index(usersDDL, "CREATE TABLE users (")
	require.GreaterOrEqual(t, start, 0)
	end := strings.Index(usersDDL[start:], ");")
	require.Greater(t, end, 0)
	usersDDL = usersDDL[start : start+end]

	cols := regexp.MustCompile(`INSERT INTO users \(([^)]+)\)`).FindStringSubmatch(seedAdminStmt)
	require.Len(t, cols, 2)
	for _, col := range strings.Split(cols[1], ",") {
		col = strings.TrimSpace(col)
		assert.Containsf(t, usersDDL, "\n    "+col, "column %q missing from users table", col)
	}
}
