package auth

type Role string

const (
	RolePatient  Role = "patient"
	RoleOperator Role = "operator"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
	Role     Role
}

func (c Claims) IsOperator() bool { return c.Role == RoleOperator }
