package user

type CreateUserRequest struct {
	FullName    string `json:"fullName" validate:"required,min=3,max=100"`
	Email       string `json:"email" validate:"required,email"`
	UserRole    string `json:"userRole" validate:"required,oneof=admin user guest system_admin"`
	PhoneNumber string `json:"phoneNumber" validate:"required,e164"`
}

type CreateUserResponse struct {
	Username string `json:"username"`
}

type ListUsersQuery struct {
	RequestedFields []string `query:"requestedFields"`
	Limit           int      `query:"limit" validate:"min=0,max=60"`
	PaginationToken string   `query:"paginationToken"`
}

type ListUsersResponse struct {
	PaginationToken string           `json:"paginationToken,omitempty"`
	Users           []map[string]any `json:"users"`
}

type UploadPictureResponse struct {
	PictureKey string `json:"pictureKey"`
}

type DownloadURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}
