package dto

type CreateChildRequest struct {
	Name      string   `json:"name" binding:"required" validate:"required,min=2"`
	BirthYear int      `json:"birthYear" validate:"required,min=2005,max=2025"`
	Interests []string `json:"interests"`
}

type UpdateChildRequest struct {
	Name      *string   `json:"name" validate:"omitempty,min=2"`
	Interests *[]string `json:"interests"`
}
