package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSchemaDeclaresOverlapGuard(t *testing.T) {
	raw, err := migrationFiles.ReadFile("0001_init.sql")
	require.NoError(t, err)
	schema := string(raw)

	assert.Contains(t, schema, "CREATE EXTENSION IF NOT EXISTS btree_gist")
	assert.Contains(t, schema, "reservations_no_overlap EXCLUDE USING gist")
	assert.Contains(t, schema, "tstzrange(start_time, end_time, '[)')")
	assert.True(t, strings.Contains(schema, "WHERE (status IN ('confirmed', 'active'))"))
	assert.Contains(t, schema, "reservations_confirmation_code_key UNIQUE (confirmation_code)")
}
