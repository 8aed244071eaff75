package model

// Context keys set from a verified ops token, and the role /ops routes require.
const (
	OperatorIDKey   = "sub"
	OperatorRoleKey = "role"

	RoleOperator = "operator"
)
