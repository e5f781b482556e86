package entity

type Title struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Year        int     `db:"year"`
	Description *string `db:"description"`
	CategoryID  *int64  `db:"category_id"`

	// Category is filled by joined reads.
	Category *Category `db:"-"`
}

// TitleFilter narrows title listings. Empty fields do not filter.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}
