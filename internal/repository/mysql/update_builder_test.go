package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateQuery(t *testing.T) {
	query, args, err := buildUpdateQuery(7, 42, []Assignment{
		{Column: "name", Value: "enc-name"},
		{Column: "username", Value: "jdoe"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE rfid_users SET name = ?, username = ? WHERE id = ? AND cpo_owner_id = ?",
		query,
	)
	assert.Equal(t, []interface{}{"enc-name", "jdoe", int64(42), int64(7)}, args)
}

func TestBuildUpdateQuery_SingleAssignment(t *testing.T) {
	query, args, err := buildUpdateQuery(1, 2, []Assignment{
		{Column: "mobile_number", Value: "enc-mobile"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE rfid_users SET mobile_number = ? WHERE id = ? AND cpo_owner_id = ?",
		query,
	)
	assert.Len(t, args, 3)
}

func TestBuildUpdateQuery_RejectsUnknownColumn(t *testing.T) {
	_, _, err := buildUpdateQuery(1, 2, []Assignment{
		{Column: "balance", Value: "999999"},
	})
	assert.Error(t, err)

	// A crafted column name never reaches the SQL text.
	_, _, err = buildUpdateQuery(1, 2, []Assignment{
		{Column: "name = 'x', user_status", Value: "ACTIVE"},
	})
	assert.Error(t, err)
}

func TestBuildUpdateQuery_RejectsEmpty(t *testing.T) {
	_, _, err := buildUpdateQuery(1, 2, nil)
	assert.Error(t, err)
}

func TestBuildUpdateQuery_ValuesAreBindParameters(t *testing.T) {
	// Hostile values stay out of the statement entirely.
	hostile := "x'; DROP TABLE rfid_users; --"
	query, args, err := buildUpdateQuery(1, 2, []Assignment{
		{Column: "address", Value: hostile},
	})
	require.NoError(t, err)

	assert.NotContains(t, query, hostile)
	assert.Contains(t, args, hostile)
}
