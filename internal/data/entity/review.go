package entity

import "time"

type Review struct {
	ID       int64     `db:"id"`
	TitleID  int64     `db:"title_id"`
	AuthorID int64     `db:"author_id"`
	Text     string    `db:"text"`
	Score    int       `db:"score"`
	PubDate  time.Time `db:"pub_date"`

	// AuthorUsername is filled by joined reads.
	AuthorUsername string `db:"-"`
}

// ReviewStats aggregates scores of one title.
type ReviewStats struct {
	TitleID      int64
	AverageScore float64
	ReviewCount  int
}
