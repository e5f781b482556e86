package request

type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Year        *int     `json:"year" validate:"required,gte=0,notfuture"`
	Description *string  `json:"description,omitempty"`
	Genre       []string `json:"genre" validate:"dive,slug"`
	Category    string   `json:"category" validate:"omitempty,slug"`
}

// UpdateTitleRequest is a partial update. A present genre list replaces the current set.
type UpdateTitleRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Year        *int      `json:"year,omitempty" validate:"omitempty,gte=0,notfuture"`
	Description *string   `json:"description,omitempty"`
	Genre       *[]string `json:"genre,omitempty" validate:"omitempty,dive,slug"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,slug"`
}

type TitleListRequest struct {
	PaginatedRequest
	Category string
	Genre    string
	Name     string
	Year     *int
}
