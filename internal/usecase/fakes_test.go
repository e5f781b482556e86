package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"yamdb/internal/data/entity"
	"yamdb/internal/data/repository"
)

// memDB is an in-memory backing store shared by the fake repositories.
type memDB struct {
	users      map[int64]*entity.User
	codes      map[int64]*entity.ConfirmationCode
	categories map[int64]*entity.Category
	genres     map[int64]*entity.Genre
	titles     map[int64]*entity.Title
	titleGenre map[int64][]int64
	reviews    map[int64]*entity.Review
	comments   map[int64]*entity.Comment
	nextID     int64
}

func newMemDB() *memDB {
	return &memDB{
		users:      map[int64]*entity.User{},
		codes:      map[int64]*entity.ConfirmationCode{},
		categories: map[int64]*entity.Category{},
		genres:     map[int64]*entity.Genre{},
		titles:     map[int64]*entity.Title{},
		titleGenre: map[int64][]int64{},
		reviews:    map[int64]*entity.Review{},
		comments:   map[int64]*entity.Comment{},
		nextID:     100,
	}
}

func (m *memDB) id(explicit int64) int64 {
	if explicit != 0 {
		return explicit
	}
	m.nextID++
	return m.nextID
}

func (m *memDB) repository() *repository.Repository {
	return &repository.Repository{
		User:             &fakeUserRepo{m},
		ConfirmationCode: &fakeCodeRepo{m},
		Category:         &fakeCategoryRepo{m},
		Genre:            &fakeGenreRepo{m},
		Title:            &fakeTitleRepo{m},
		Review:           &fakeReviewRepo{m},
		Comment:          &fakeCommentRepo{m},
	}
}

// ==================== USERS ====================

type fakeUserRepo struct{ m *memDB }

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	for _, u := range f.m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = f.m.id(user.ID)
	cp := *user
	f.m.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := f.m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range f.m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range f.m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range f.m.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return paginate(out, limit, offset), nil
}

func (f *fakeUserRepo) CountAll(ctx context.Context, search string) (int64, error) {
	all, _ := f.FindAll(ctx, search, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	for id, u := range f.m.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	f.m.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	if u, ok := f.m.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	delete(f.m.users, id)
	return nil
}

// ==================== CONFIRMATION CODES ====================

type fakeCodeRepo struct{ m *memDB }

func (f *fakeCodeRepo) Create(_ context.Context, code *entity.ConfirmationCode) error {
	code.ID = f.m.id(code.ID)
	cp := *code
	f.m.codes[code.ID] = &cp
	return nil
}

func (f *fakeCodeRepo) FindLatestValid(_ context.Context, userID int64, email string) (*entity.ConfirmationCode, error) {
	var latest *entity.ConfirmationCode
	for _, c := range f.m.codes {
		if c.UserID != userID || c.Email != email || c.IsUsed || time.Now().After(c.ExpiresAt) {
			continue
		}
		if latest == nil || c.ID > latest.ID {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeCodeRepo) InvalidateForUser(_ context.Context, userID int64) error {
	for _, c := range f.m.codes {
		if c.UserID == userID {
			c.IsUsed = true
		}
	}
	return nil
}

func (f *fakeCodeRepo) MarkAsUsed(_ context.Context, id int64) error {
	c, ok := f.m.codes[id]
	if !ok || c.IsUsed || time.Now().After(c.ExpiresAt) {
		return repository.ErrNotFound
	}
	c.IsUsed = true
	return nil
}

// ==================== CATALOG ====================

type fakeCategoryRepo struct{ m *memDB }

func (f *fakeCategoryRepo) Create(_ context.Context, category *entity.Category) error {
	for _, c := range f.m.categories {
		if c.Slug == category.Slug {
			return repository.ErrDuplicate
		}
	}
	category.ID = f.m.id(category.ID)
	cp := *category
	f.m.categories[category.ID] = &cp
	return nil
}

func (f *fakeCategoryRepo) FindByID(_ context.Context, id int64) (*entity.Category, error) {
	if c, ok := f.m.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeCategoryRepo) FindBySlug(_ context.Context, slug string) (*entity.Category, error) {
	for _, c := range f.m.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCategoryRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.Category, error) {
	var out []*entity.Category
	for _, c := range f.m.categories {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return paginate(out, limit, offset), nil
}

func (f *fakeCategoryRepo) CountAll(ctx context.Context, search string) (int64, error) {
	all, _ := f.FindAll(ctx, search, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id int64) error {
	delete(f.m.categories, id)
	for _, t := range f.m.titles {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID, t.Category = nil, nil
		}
	}
	return nil
}

type fakeGenreRepo struct{ m *memDB }

func (f *fakeGenreRepo) Create(_ context.Context, genre *entity.Genre) error {
	for _, g := range f.m.genres {
		if g.Slug == genre.Slug {
			return repository.ErrDuplicate
		}
	}
	genre.ID = f.m.id(genre.ID)
	cp := *genre
	f.m.genres[genre.ID] = &cp
	return nil
}

func (f *fakeGenreRepo) FindByID(_ context.Context, id int64) (*entity.Genre, error) {
	if g, ok := f.m.genres[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeGenreRepo) FindBySlug(_ context.Context, slug string) (*entity.Genre, error) {
	for _, g := range f.m.genres {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeGenreRepo) FindBySlugs(ctx context.Context, slugs []string) ([]*entity.Genre, error) {
	var out []*entity.Genre
	for _, slug := range slugs {
		if g, _ := f.FindBySlug(ctx, slug); g != nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGenreRepo) FindByTitleIDs(_ context.Context, titleIDs []int64) (map[int64][]*entity.Genre, error) {
	out := make(map[int64][]*entity.Genre)
	for _, titleID := range titleIDs {
		for _, genreID := range f.m.titleGenre[titleID] {
			if g, ok := f.m.genres[genreID]; ok {
				cp := *g
				out[titleID] = append(out[titleID], &cp)
			}
		}
	}
	return out, nil
}

func (f *fakeGenreRepo) FindAll(_ context.Context, search string, limit, offset int) ([]*entity.Genre, error) {
	var out []*entity.Genre
	for _, g := range f.m.genres {
		if strings.Contains(strings.ToLower(g.Name), strings.ToLower(search)) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return paginate(out, limit, offset), nil
}

func (f *fakeGenreRepo) CountAll(ctx context.Context, search string) (int64, error) {
	all, _ := f.FindAll(ctx, search, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeGenreRepo) Delete(_ context.Context, id int64) error {
	delete(f.m.genres, id)
	return nil
}

// ==================== TITLES ====================

type fakeTitleRepo struct{ m *memDB }

// checkRefs mimics the foreign keys on titles and genre_titles.
func (f *fakeTitleRepo) checkRefs(title *entity.Title, genreIDs []int64) error {
	if title.CategoryID != nil {
		if _, ok := f.m.categories[*title.CategoryID]; !ok {
			return &repository.ReferenceError{Field: "category", Err: repository.ErrMissingReference}
		}
	}
	for _, id := range genreIDs {
		if _, ok := f.m.genres[id]; !ok {
			return &repository.ReferenceError{Field: "genre", Err: repository.ErrMissingReference}
		}
	}
	return nil
}

func (f *fakeTitleRepo) Create(_ context.Context, title *entity.Title, genreIDs []int64) error {
	if err := f.checkRefs(title, genreIDs); err != nil {
		return err
	}
	title.ID = f.m.id(title.ID)
	cp := *title
	f.m.titles[title.ID] = &cp
	f.m.titleGenre[title.ID] = append([]int64(nil), genreIDs...)
	return nil
}

func (f *fakeTitleRepo) FindByID(_ context.Context, id int64) (*entity.Title, error) {
	t, ok := f.m.titles[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	if cp.CategoryID != nil {
		if c, ok := f.m.categories[*cp.CategoryID]; ok {
			cc := *c
			cp.Category = &cc
		}
	}
	return &cp, nil
}

func (f *fakeTitleRepo) FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error) {
	var out []*entity.Title
	for id := range f.m.titles {
		t, _ := f.FindByID(ctx, id)
		if filter.Year != nil && t.Year != *filter.Year {
			continue
		}
		if filter.Name != "" && !strings.Contains(t.Name, filter.Name) {
			continue
		}
		if filter.CategorySlug != "" && (t.Category == nil || t.Category.Slug != filter.CategorySlug) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

func (f *fakeTitleRepo) CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error) {
	all, _ := f.FindAll(ctx, filter, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeTitleRepo) Update(_ context.Context, title *entity.Title, genreIDs []int64) error {
	if _, ok := f.m.titles[title.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := f.checkRefs(title, genreIDs); err != nil {
		return err
	}
	cp := *title
	f.m.titles[title.ID] = &cp
	if genreIDs != nil {
		f.m.titleGenre[title.ID] = append([]int64(nil), genreIDs...)
	}
	return nil
}

func (f *fakeTitleRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.m.titles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.m.titles, id)
	for rid, r := range f.m.reviews {
		if r.TitleID == id {
			delete(f.m.reviews, rid)
		}
	}
	return nil
}

// ==================== REVIEWS & COMMENTS ====================

type fakeReviewRepo struct{ m *memDB }

func (f *fakeReviewRepo) Create(_ context.Context, review *entity.Review) error {
	for _, r := range f.m.reviews {
		if r.TitleID == review.TitleID && r.AuthorID == review.AuthorID {
			return repository.ErrDuplicate
		}
	}
	review.ID = f.m.id(review.ID)
	if review.PubDate.IsZero() {
		review.PubDate = time.Now()
	}
	cp := *review
	f.m.reviews[review.ID] = &cp
	return nil
}

func (f *fakeReviewRepo) FindByID(_ context.Context, id int64) (*entity.Review, error) {
	r, ok := f.m.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	if u, ok := f.m.users[cp.AuthorID]; ok {
		cp.AuthorUsername = u.Username
	}
	return &cp, nil
}

func (f *fakeReviewRepo) FindByTitleID(ctx context.Context, titleID int64, limit, offset int) ([]*entity.Review, error) {
	var out []*entity.Review
	for id, r := range f.m.reviews {
		if r.TitleID == titleID {
			cp, _ := f.FindByID(ctx, id)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return paginate(out, limit, offset), nil
}

func (f *fakeReviewRepo) CountByTitleID(ctx context.Context, titleID int64) (int64, error) {
	all, _ := f.FindByTitleID(ctx, titleID, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeReviewRepo) Update(_ context.Context, review *entity.Review) error {
	if _, ok := f.m.reviews[review.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *review
	f.m.reviews[review.ID] = &cp
	return nil
}

func (f *fakeReviewRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.m.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.m.reviews, id)
	for cid, c := range f.m.comments {
		if c.ReviewID == id {
			delete(f.m.comments, cid)
		}
	}
	return nil
}

func (f *fakeReviewRepo) StatsByTitleIDs(_ context.Context, titleIDs []int64) (map[int64]entity.ReviewStats, error) {
	out := make(map[int64]entity.ReviewStats)
	for _, titleID := range titleIDs {
		sum, count := 0, 0
		for _, r := range f.m.reviews {
			if r.TitleID == titleID {
				sum += r.Score
				count++
			}
		}
		if count > 0 {
			out[titleID] = entity.ReviewStats{
				TitleID:      titleID,
				AverageScore: float64(sum) / float64(count),
				ReviewCount:  count,
			}
		}
	}
	return out, nil
}

type fakeCommentRepo struct{ m *memDB }

func (f *fakeCommentRepo) Create(_ context.Context, comment *entity.Comment) error {
	comment.ID = f.m.id(comment.ID)
	if comment.PubDate.IsZero() {
		comment.PubDate = time.Now()
	}
	cp := *comment
	f.m.comments[comment.ID] = &cp
	return nil
}

func (f *fakeCommentRepo) FindByID(_ context.Context, id int64) (*entity.Comment, error) {
	c, ok := f.m.comments[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	if u, ok := f.m.users[cp.AuthorID]; ok {
		cp.AuthorUsername = u.Username
	}
	return &cp, nil
}

func (f *fakeCommentRepo) FindByReviewID(ctx context.Context, reviewID int64, limit, offset int) ([]*entity.Comment, error) {
	var out []*entity.Comment
	for id, c := range f.m.comments {
		if c.ReviewID == reviewID {
			cp, _ := f.FindByID(ctx, id)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return paginate(out, limit, offset), nil
}

func (f *fakeCommentRepo) CountByReviewID(ctx context.Context, reviewID int64) (int64, error) {
	all, _ := f.FindByReviewID(ctx, reviewID, 1<<30, 0)
	return int64(len(all)), nil
}

func (f *fakeCommentRepo) Update(_ context.Context, comment *entity.Comment) error {
	if _, ok := f.m.comments[comment.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *comment
	f.m.comments[comment.ID] = &cp
	return nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.m.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.m.comments, id)
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ==================== SEED HELPERS ====================

func (m *memDB) addUser(username string, role entity.UserRole) *entity.User {
	u := &entity.User{
		Base:     entity.Base{ID: m.id(0)},
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
	}
	m.users[u.ID] = u
	return u
}

func (m *memDB) addTitle(name string, year int) *entity.Title {
	t := &entity.Title{ID: m.id(0), Name: name, Year: year}
	m.titles[t.ID] = t
	return t
}

func (m *memDB) addReview(titleID, authorID int64, score int) *entity.Review {
	r := &entity.Review{ID: m.id(0), TitleID: titleID, AuthorID: authorID, Text: "text", Score: score, PubDate: time.Now()}
	m.reviews[r.ID] = r
	return r
}
