package usecase

import (
	"context"
	"testing"

	"yamdb/internal/authz"
	"yamdb/internal/data/entity"
	"yamdb/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEnforcer(t *testing.T) *authz.Enforcer {
	t.Helper()
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	return enforcer
}

func actorOf(u *entity.User) authz.Actor {
	return authz.Actor{ID: u.ID, Role: string(u.Role)}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestReviewService_Create(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	alice := db.addUser("alice", entity.RoleUser)
	title := db.addTitle("Dune", 1965)
	svc := NewReviewService(db.repository(), newEnforcer(t), zap.NewNop())

	resp, err := svc.Create(ctx, actorOf(alice), title.ID, &request.CreateReviewRequest{Text: "Great", Score: 9})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Author)
	assert.Equal(t, 9, resp.Score)
	assert.False(t, resp.PubDate.IsZero())

	t.Run("second review on same title", func(t *testing.T) {
		_, err := svc.Create(ctx, actorOf(alice), title.ID, &request.CreateReviewRequest{Text: "Again", Score: 3})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "non_field_errors")
	})

	t.Run("score out of range", func(t *testing.T) {
		bob := db.addUser("bob", entity.RoleUser)
		for _, score := range []int{0, 11} {
			_, err := svc.Create(ctx, actorOf(bob), title.ID, &request.CreateReviewRequest{Text: "x", Score: score})

			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "score %d", score)
			assert.Contains(t, verr.Fields, "score")
		}
	})

	t.Run("unknown title", func(t *testing.T) {
		_, err := svc.Create(ctx, actorOf(alice), 9999, &request.CreateReviewRequest{Text: "x", Score: 5})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Create(ctx, authz.Actor{Role: authz.RoleAnonymous}, title.ID, &request.CreateReviewRequest{Text: "x", Score: 5})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestReviewService_Modify(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	author := db.addUser("author", entity.RoleUser)
	stranger := db.addUser("stranger", entity.RoleUser)
	moderator := db.addUser("mod", entity.RoleModerator)
	admin := db.addUser("root", entity.RoleAdmin)
	title := db.addTitle("Dune", 1965)
	other := db.addTitle("Solaris", 1961)
	svc := NewReviewService(db.repository(), newEnforcer(t), zap.NewNop())

	tests := []struct {
		name    string
		actor   authz.Actor
		wantErr error
	}{
		{name: "author", actor: actorOf(author)},
		{name: "moderator", actor: actorOf(moderator)},
		{name: "admin", actor: actorOf(admin)},
		{name: "other user", actor: actorOf(stranger), wantErr: ErrForbidden},
		{name: "anonymous", actor: authz.Actor{Role: authz.RoleAnonymous}, wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run("update by "+tt.name, func(t *testing.T) {
			review := db.addReview(title.ID, author.ID, 5)

			resp, err := svc.Update(ctx, tt.actor, title.ID, review.ID, &request.UpdateReviewRequest{Score: intPtr(8)})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 5, db.reviews[review.ID].Score)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 8, resp.Score)
			assert.Equal(t, "text", resp.Text)
		})

		t.Run("delete by "+tt.name, func(t *testing.T) {
			review := db.addReview(title.ID, author.ID, 5)

			err := svc.Delete(ctx, tt.actor, title.ID, review.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, db.reviews, review.ID)
				return
			}
			require.NoError(t, err)
			assert.NotContains(t, db.reviews, review.ID)
		})
	}

	t.Run("review of another title is not found", func(t *testing.T) {
		review := db.addReview(other.ID, author.ID, 5)

		_, err := svc.Get(ctx, title.ID, review.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		err = svc.Delete(ctx, actorOf(author), title.ID, review.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		review := db.addReview(title.ID, author.ID, 5)

		_, err := svc.Update(ctx, actorOf(author), title.ID, review.ID, &request.UpdateReviewRequest{Text: strPtr("")})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "text")
	})
}

func TestReviewService_List(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	title := db.addTitle("Dune", 1965)
	for i := 0; i < 3; i++ {
		u := db.addUser("user"+string(rune('a'+i)), entity.RoleUser)
		db.addReview(title.ID, u.ID, 5+i)
	}
	svc := NewReviewService(db.repository(), newEnforcer(t), zap.NewNop())

	resp, err := svc.List(ctx, title.ID, request.NewPaginatedRequest(1, 2))
	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(3), resp.Pagination.Total)

	_, err = svc.List(ctx, 9999, request.NewPaginatedRequest(1, 10))
	assert.ErrorIs(t, err, ErrNotFound)
}

// vanishingReviewRepo deletes a review right after it is read.
type vanishingReviewRepo struct{ *fakeReviewRepo }

func (r vanishingReviewRepo) FindByID(ctx context.Context, id int64) (*entity.Review, error) {
	review, err := r.fakeReviewRepo.FindByID(ctx, id)
	delete(r.m.reviews, id)
	return review, err
}

func TestReviewService_ConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	author := db.addUser("author", entity.RoleUser)
	title := db.addTitle("Dune", 1965)
	repo := db.repository()
	repo.Review = vanishingReviewRepo{&fakeReviewRepo{db}}
	svc := NewReviewService(repo, newEnforcer(t), zap.NewNop())

	review := db.addReview(title.ID, author.ID, 7)
	_, err := svc.Update(ctx, actorOf(author), title.ID, review.ID, &request.UpdateReviewRequest{Score: intPtr(8)})
	assert.ErrorIs(t, err, ErrNotFound)

	review = db.addReview(title.ID, author.ID, 7)
	assert.ErrorIs(t, svc.Delete(ctx, actorOf(author), title.ID, review.ID), ErrNotFound)
}
