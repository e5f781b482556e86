package entity

type GenreTitle struct {
	ID      int64 `db:"id"`
	GenreID int64 `db:"genre_id"`
	TitleID int64 `db:"title_id"`
}
