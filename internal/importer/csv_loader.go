package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
	"yamdb/pkg/database"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

// PubDateLayout is the timestamp format of review and comment rows.
// Fractional seconds are optional when parsing.
const PubDateLayout = "2006-01-02T15:04:05Z"

// Files are loaded in dependency order.
var Files = []string{
	"category.csv",
	"genre.csv",
	"titles.csv",
	"genre_title.csv",
	"users.csv",
	"review.csv",
	"comments.csv",
}

type CategoryStore interface {
	Create(ctx context.Context, category *entity.Category) error
	FindByID(ctx context.Context, id int64) (*entity.Category, error)
}

type GenreStore interface {
	Create(ctx context.Context, genre *entity.Genre) error
	FindByID(ctx context.Context, id int64) (*entity.Genre, error)
}

type TitleStore interface {
	Create(ctx context.Context, title *entity.Title, genreIDs []int64) error
	FindByID(ctx context.Context, id int64) (*entity.Title, error)
}

type GenreTitleStore interface {
	Create(ctx context.Context, link *entity.GenreTitle) error
}

type UserStore interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id int64) (*entity.Review, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *entity.Comment) error
}

// FileResult counts what happened to the rows of one file.
type FileResult struct {
	File     string
	Missing  bool
	Inserted int
	Skipped  int
}

type Summary struct {
	Files []FileResult
}

func (s Summary) Inserted() int {
	total := 0
	for _, f := range s.Files {
		total += f.Inserted
	}
	return total
}

func (s Summary) Skipped() int {
	total := 0
	for _, f := range s.Files {
		total += f.Skipped
	}
	return total
}

// Loader imports seed CSV files keeping their explicit ids.
type Loader struct {
	Categories  CategoryStore
	Genres      GenreStore
	Titles      TitleStore
	GenreTitles GenreTitleStore
	Users       UserStore
	Reviews     ReviewStore
	Comments    CommentStore

	// SyncSequences runs after all files so later inserts do not collide with imported ids.
	SyncSequences func(ctx context.Context) error

	log *zap.Logger
	now func() time.Time
}

func NewLoader(repo *repository.Repository, db database.PgxIface, log *zap.Logger) *Loader {
	l := newLoader(log)
	l.Categories = repo.Category
	l.Genres = repo.Genre
	l.Titles = repo.Title
	l.GenreTitles = repo.GenreTitle
	l.Users = repo.User
	l.Reviews = repo.Review
	l.Comments = repo.Comment
	l.SyncSequences = func(ctx context.Context) error {
		return database.SyncSequences(ctx, db, database.SequencedTables...)
	}
	return l
}

func newLoader(log *zap.Logger) *Loader {
	return &Loader{
		log: log.With(zap.String("component", "csv_loader")),
		now: time.Now,
	}
}

type rowFunc func(ctx context.Context, row map[string]string) error

// Load imports every known file found in fsys. Row failures are logged and
// counted; only a sequence sync failure aborts with an error.
func (l *Loader) Load(ctx context.Context, fsys fs.FS) (Summary, error) {
	handlers := map[string]rowFunc{
		"category.csv":    l.insertCategory,
		"genre.csv":       l.insertGenre,
		"titles.csv":      l.insertTitle,
		"genre_title.csv": l.insertGenreTitle,
		"users.csv":       l.insertUser,
		"review.csv":      l.insertReview,
		"comments.csv":    l.insertComment,
	}

	l.log.Info("CSV import started")

	var summary Summary
	for _, name := range Files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Files = append(summary.Files, l.loadFile(ctx, fsys, name, handlers[name]))
	}

	if l.SyncSequences != nil {
		if err := l.SyncSequences(ctx); err != nil {
			l.log.Error("Failed to sync id sequences", zap.Error(err))
			return summary, fmt.Errorf("sync sequences: %w", err)
		}
	}

	for _, f := range summary.Files {
		l.log.Info("CSV file summary",
			zap.String("file", f.File),
			zap.Bool("missing", f.Missing),
			zap.Int("inserted", f.Inserted),
			zap.Int("skipped", f.Skipped),
		)
	}
	l.log.Info("CSV import finished",
		zap.Int("inserted", summary.Inserted()),
		zap.Int("skipped", summary.Skipped()),
	)

	return summary, nil
}

func (l *Loader) loadFile(ctx context.Context, fsys fs.FS, name string, insert rowFunc) FileResult {
	result := FileResult{File: name}
	log := l.log.With(zap.String("file", name))

	f, err := fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("CSV file not found, skipping")
		result.Missing = true
		return result
	}
	if err != nil {
		log.Error("Failed to open CSV file", zap.Error(err))
		result.Missing = true
		return result
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err != io.EOF {
			log.Error("Failed to read CSV header", zap.Error(err))
		}
		return result
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Error("Failed to parse CSV line", zap.Int("line", line), zap.Error(err))
			result.Skipped++
			continue
		}

		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		log.Debug("CSV row", zap.Int("line", line), zap.Any("row", row))

		if err := insert(ctx, row); err != nil {
			log.Error("Row skipped", zap.Int("line", line), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Inserted++
	}

	return result
}

// ==================== ROW HANDLERS ====================

type slugRow struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

func (l *Loader) insertCategory(ctx context.Context, row map[string]string) error {
	id, err := intField(row, "id")
	if err != nil {
		return err
	}
	item := slugRow{Name: row["name"], Slug: row["slug"]}
	if err := validateRow(item); err != nil {
		return err
	}
	return l.Categories.Create(ctx, &entity.Category{ID: id, Name: item.Name, Slug: item.Slug})
}

func (l *Loader) insertGenre(ctx context.Context, row map[string]string) error {
	id, err := intField(row, "id")
	if err != nil {
		return err
	}
	item := slugRow{Name: row["name"], Slug: row["slug"]}
	if err := validateRow(item); err != nil {
		return err
	}
	return l.Genres.Create(ctx, &entity.Genre{ID: id, Name: item.Name, Slug: item.Slug})
}

func (l *Loader) insertTitle(ctx context.Context, row map[string]string) error {
	id, err := intField(row, "id")
	if err != nil {
		return err
	}
	year, err := intField(row, "year")
	if err != nil {
		return err
	}
	if year < 0 || int(year) > l.now().Year() {
		return fmt.Errorf("year %d is out of range", year)
	}
	name := strings.TrimSpace(row["name"])
	if name == "" || len(name) > 200 {
		return errors.New("name is empty or too long")
	}

	title := &entity.Title{ID: id, Name: name, Year: int(year)}
	if desc := row["description"]; desc != "" {
		title.Description = &desc
	}

	if raw := strings.TrimSpace(row["category"]); raw != "" {
		categoryID, err := intField(row, "category")
		if err != nil {
			return err
		}
		category, err := l.Categories.FindByID(ctx, categoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return fmt.Errorf("category %d does not exist", categoryID)
		}
		title.CategoryID = &category.ID
	}

	return l.Titles.Create(ctx, title, nil)
}

func (l *Loader) insertGenreTitle(ctx context.Context, row map[string]string) error {
	id, err := intField(row, "id")
	if err != nil {
		return err
	}
	genreID, err := intField(row, "genre_id")
	if err != nil {
		return err
	}
	titleID, err := intField(row, "title_id")
	if err != nil {
		return err
	}

	genre, err := l.Genres.FindByID(ctx, genreID)
	if err != nil {
		return err
	}
	if genre == nil {
		return fmt.Errorf("genre %d does not exist", genreID)
	}
	title, err := l.Titles.FindByID(ctx, titleID)
	if err != nil {
		return err
	}
	if title == nil {
		return fmt.Errorf("title %d does not exist", titleID)
	}

	return l.GenreTitles.Create(ctx, &entity.GenreTitle{ID: id, GenreID: genreID, TitleID: titleID})
}

type userRow struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

func (l *Loader) insertUser(ctx context.Context, row map[string]string) error {
	id, err := intField(row, "id")
	if err != nil {
		return err
	}
	item := userRow{
		Username:  row["username"],
		Email:     row["email"],
		FirstName: row["first_name"],
		LastName:  row["last_name"],
	}
	if err := validateRow(item); err != nil {
		return err
	}

	role := entity.RoleUser
	if raw := strings.TrimSpace(row["role"]); raw != "" {
		role = entity.UserRole(raw)
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	return l.Users.Create(ctx, &entity.User{
		Base:      entity.Base{ID: id},
		Username:  item.Username,
		Email:     item.Email,
		FirstName: item.FirstName,
		LastName:  item.LastName,
		Bio:       row["bio"],
		Role:      role,
		IsActive:  true,
	})
}

func (l *Loader) insertReview(ctx context.Context, row map[string]string) error {
	id, err := intField(row, "id")
	if err != nil {
		return err
	}
	pubDate, err := timeField(row, "pub_date")
	if err != nil {
		return err
	}
	score, err := intField(row, "score")
	if err != nil {
		return err
	}
	if score < 1 || score > 10 {
		return fmt.Errorf("score %d is out of range", score)
	}
	if strings.TrimSpace(row["text"]) == "" {
		return errors.New("text is empty")
	}

	titleID, err := intField(row, "title_id")
	if err != nil {
		return err
	}
	title, err := l.Titles.FindByID(ctx, titleID)
	if err != nil {
		return err
	}
	if title == nil {
		return fmt.Errorf("title %d does not exist", titleID)
	}

	authorID, err := l.resolveAuthor(ctx, row)
	if err != nil {
		return err
	}

	return l.Reviews.Create(ctx, &entity.Review{
		ID:       id,
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     row["text"],
		Score:    int(score),
		PubDate:  pubDate,
	})
}

func (l *Loader) insertComment(ctx context.Context, row map[string]string) error {
	id, err := intField(row, "id")
	if err != nil {
		return err
	}
	pubDate, err := timeField(row, "pub_date")
	if err != nil {
		return err
	}
	if strings.TrimSpace(row["text"]) == "" {
		return errors.New("text is empty")
	}

	reviewID, err := intField(row, "review_id")
	if err != nil {
		return err
	}
	review, err := l.Reviews.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return fmt.Errorf("review %d does not exist", reviewID)
	}

	authorID, err := l.resolveAuthor(ctx, row)
	if err != nil {
		return err
	}

	return l.Comments.Create(ctx, &entity.Comment{
		ID:       id,
		ReviewID: reviewID,
		AuthorID: authorID,
		Text:     row["text"],
		PubDate:  pubDate,
	})
}

func (l *Loader) resolveAuthor(ctx context.Context, row map[string]string) (int64, error) {
	authorID, err := intField(row, "author")
	if err != nil {
		return 0, err
	}
	author, err := l.Users.FindByID(ctx, authorID)
	if err != nil {
		return 0, err
	}
	if author == nil {
		return 0, fmt.Errorf("user %d does not exist", authorID)
	}
	return author.ID, nil
}

// ==================== FIELD PARSING ====================

func intField(row map[string]string, column string) (int64, error) {
	raw, ok := row[column]
	if !ok {
		return 0, fmt.Errorf("column %q is missing", column)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %q is not an integer", column, raw)
	}
	return v, nil
}

func timeField(row map[string]string, column string) (time.Time, error) {
	raw, ok := row[column]
	if !ok {
		return time.Time{}, fmt.Errorf("column %q is missing", column)
	}
	t, err := time.Parse(PubDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("column %q: %w", column, err)
	}
	return t, nil
}

func validateRow(v any) error {
	if errs := utils.ValidateStruct(v); errs != nil {
		return errors.New(utils.FormatValidationErrors(errs))
	}
	return nil
}
