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

func TestCommentService(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	alice := db.addUser("alice", entity.RoleUser)
	bob := db.addUser("bob", entity.RoleUser)
	moderator := db.addUser("mod", entity.RoleModerator)
	dune := db.addTitle("Dune", 1965)
	solaris := db.addTitle("Solaris", 1961)
	review := db.addReview(dune.ID, alice.ID, 8)
	svc := NewCommentService(db.repository(), newEnforcer(t), zap.NewNop())

	created, err := svc.Create(ctx, actorOf(bob), dune.ID, review.ID, &request.CommentRequest{Text: "Agreed"})
	require.NoError(t, err)
	assert.Equal(t, "bob", created.Author)
	assert.Equal(t, "Agreed", created.Text)

	t.Run("review must belong to title", func(t *testing.T) {
		_, err := svc.Create(ctx, actorOf(bob), solaris.ID, review.ID, &request.CommentRequest{Text: "x"})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = svc.Get(ctx, solaris.ID, review.ID, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("comment must belong to review", func(t *testing.T) {
		other := db.addReview(dune.ID, bob.ID, 3)

		_, err := svc.Get(ctx, dune.ID, other.ID, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := svc.Create(ctx, actorOf(bob), dune.ID, review.ID, &request.CommentRequest{})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "text")
	})

	t.Run("non author cannot edit", func(t *testing.T) {
		_, err := svc.Update(ctx, actorOf(alice), dune.ID, review.ID, created.ID, &request.CommentRequest{Text: "hijack"})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, "Agreed", db.comments[created.ID].Text)
	})

	t.Run("author edits", func(t *testing.T) {
		resp, err := svc.Update(ctx, actorOf(bob), dune.ID, review.ID, created.ID, &request.CommentRequest{Text: "Strongly agreed"})
		require.NoError(t, err)
		assert.Equal(t, "Strongly agreed", resp.Text)
	})

	t.Run("list", func(t *testing.T) {
		resp, err := svc.List(ctx, dune.ID, review.ID, request.NewPaginatedRequest(1, 10))
		require.NoError(t, err)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, created.ID, resp.Data[0].ID)
	})

	t.Run("anonymous cannot delete", func(t *testing.T) {
		err := svc.Delete(ctx, authz.Actor{Role: authz.RoleAnonymous}, dune.ID, review.ID, created.ID)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("moderator deletes", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, actorOf(moderator), dune.ID, review.ID, created.ID))
		assert.NotContains(t, db.comments, created.ID)
	})

	t.Run("deleting review removes comments", func(t *testing.T) {
		c, err := svc.Create(ctx, actorOf(bob), dune.ID, review.ID, &request.CommentRequest{Text: "again"})
		require.NoError(t, err)

		reviews := NewReviewService(db.repository(), newEnforcer(t), zap.NewNop())
		require.NoError(t, reviews.Delete(ctx, actorOf(alice), dune.ID, review.ID))
		assert.NotContains(t, db.comments, c.ID)
	})
}
