package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoleAssignmentDTO struct {
	UserID    int64  `json:"user_id"`
	RoleID    string `json:"role_id"`
	GrantedBy string `json:"granted_by"`
	GrantedAt string `json:"granted_at"`
}

type GrantRoleRequest struct {
	RoleID string `json:"role_id"`
}

type GrantRoleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Assignment RoleAssignmentDTO `json:"assignment"`
	} `json:"data"`
}

type UserRolesResponse struct {
	Status string `json:"status"`
	Data   struct {
		Roles []RoleAssignmentDTO `json:"roles"`
	} `json:"data"`
}

type RevokeRoleResponse struct {
	Status string `json:"status"`
}
