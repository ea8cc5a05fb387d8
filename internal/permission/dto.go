package permission

type PermissionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PermissionsResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
}
