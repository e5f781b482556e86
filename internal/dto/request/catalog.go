package request

// SlugItemRequest creates a category or a genre.
type SlugItemRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

type SlugListRequest struct {
	PaginatedRequest
	Search string
}
