package dto

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type GrantRoleRequest struct {
	UserID   string `json:"userId" binding:"required"`
	RoleName string `json:"roleName" binding:"required"`
}
