package response

import "yamdb/internal/data/entity"

type SlugItemResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func CategoryToResponse(c *entity.Category) SlugItemResponse {
	return SlugItemResponse{Name: c.Name, Slug: c.Slug}
}

func GenreToResponse(g *entity.Genre) SlugItemResponse {
	return SlugItemResponse{Name: g.Name, Slug: g.Slug}
}

type TitleResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Year        int                `json:"year"`
	Rating      *int               `json:"rating,omitempty"`
	Description *string            `json:"description"`
	Genre       []SlugItemResponse `json:"genre"`
	Category    *SlugItemResponse  `json:"category"`
}

// TitleToResponse builds the read view. rating is omitted when the title has no reviews.
func TitleToResponse(t *entity.Title, genres []*entity.Genre, rating *int) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      rating,
		Description: t.Description,
		Genre:       make([]SlugItemResponse, 0, len(genres)),
	}
	for _, g := range genres {
		resp.Genre = append(resp.Genre, GenreToResponse(g))
	}
	if t.Category != nil {
		c := CategoryToResponse(t.Category)
		resp.Category = &c
	}
	return resp
}
