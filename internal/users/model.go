package users

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Role     string `json:"role" validate:"required,oneof=client professional"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=client professional admin"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
