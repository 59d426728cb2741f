package mysql

import (
	"fmt"
	"strings"
)

// Assignment is one (column, value) pair of a partial update. Values travel
// as bind parameters; columns are validated against a fixed set, so no caller
// input is ever interpolated into SQL text.
type Assignment struct {
	Column string
	Value  string
}

// updatableColumns is the full set of columns a partial update may touch.
var updatableColumns = map[string]bool{
	"name":                 true,
	"address":              true,
	"email_address":        true,
	"mobile_number":        true,
	"vehicle_plate_number": true,
	"vehicle_brand":        true,
	"vehicle_model":        true,
	"username":             true,
}

// buildUpdateQuery renders a single parameterized UPDATE for the given
// assignments, scoped to one account under one owner. Returns the statement
// and its bind arguments in order.
func buildUpdateQuery(ownerID, accountID int64, assignments []Assignment) (string, []interface{}, error) {
	if len(assignments) == 0 {
		return "", nil, fmt.Errorf("no assignments to apply")
	}

	setClauses := make([]string, 0, len(assignments))
	args := make([]interface{}, 0, len(assignments)+2)

	for _, a := range assignments {
		if !updatableColumns[a.Column] {
			return "", nil, fmt.Errorf("column %q is not updatable", a.Column)
		}
		setClauses = append(setClauses, a.Column+" = ?")
		args = append(args, a.Value)
	}

	query := fmt.Sprintf(
		"UPDATE rfid_users SET %s WHERE id = ? AND cpo_owner_id = ?",
		strings.Join(setClauses, ", "),
	)
	args = append(args, accountID, ownerID)

	return query, args, nil
}
