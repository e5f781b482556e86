package entity

import "time"

type Comment struct {
	ID       int64     `db:"id"`
	ReviewID int64     `db:"review_id"`
	AuthorID int64     `db:"author_id"`
	Text     string    `db:"text"`
	PubDate  time.Time `db:"pub_date"`

	AuthorUsername string `db:"-"`
}
