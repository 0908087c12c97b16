package authz

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
