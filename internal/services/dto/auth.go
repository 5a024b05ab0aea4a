package dto

type SignupChild struct {
	Name      string   `json:"name" binding:"required" validate:"required,min=2"`
	BirthYear int      `json:"birthYear" validate:"required,min=2005,max=2025"`
	Interests []string `json:"interests"`
}

type SignupRequest struct {
	Email    string      `json:"email" binding:"required" validate:"required,email"`
	Password string      `json:"password" binding:"required" validate:"required,min=8"`
	Name     string      `json:"name" binding:"required" validate:"required,min=2"`
	City     string      `json:"city" validate:"required,min=2"`
	Child    SignupChild `json:"child" validate:"required"`
	PlanID   string      `json:"planId"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	City  string `json:"city"`
}
