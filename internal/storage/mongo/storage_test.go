package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mcoot/idgateway/internal/model"
)

func TestStorage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("save user assigns id and created at", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := NewWithCollection(mt.Coll)

		user := &model.UserRecord{Username: "alice", Password: "hash"}
		err := store.SaveUser(ctx, user)

		require.NoError(mt, err)
		assert.NotEmpty(mt, user.ID)
		assert.False(mt, user.CreatedAt.IsZero())
		_, err = primitive.ObjectIDFromHex(string(user.ID))
		assert.NoError(mt, err)
	})

	mt.Run("save user propagates write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		store := NewWithCollection(mt.Coll)

		err := store.SaveUser(ctx, &model.UserRecord{Username: "alice"})
		assert.Error(mt, err)
	})

	mt.Run("get user", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "web3.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "username", Value: "bob"},
			{Key: "email", Value: "bob@x.com"},
			{Key: "createdAt", Value: created},
		}))
		store := NewWithCollection(mt.Coll)

		user, err := store.GetUser(ctx, model.UserID(oid.Hex()))

		require.NoError(mt, err)
		assert.Equal(mt, model.UserID(oid.Hex()), user.ID)
		assert.Equal(mt, "bob", user.Username)
		assert.Equal(mt, "bob@x.com", user.Email)
		assert.True(mt, created.Equal(user.CreatedAt))
	})

	mt.Run("get user with malformed id", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)

		_, err := store.GetUser(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, model.ErrUserNotFound)
	})

	mt.Run("find user by email not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "web3.users", mtest.FirstBatch))
		store := NewWithCollection(mt.Coll)

		_, err := store.FindUserByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(mt, err, model.ErrUserNotFound)
	})

	mt.Run("find user by email", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "web3.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "email", Value: "bob@x.com"},
		}))
		store := NewWithCollection(mt.Coll)

		user, err := store.FindUserByEmail(ctx, "bob@x.com")

		require.NoError(mt, err)
		assert.Equal(mt, "bob@x.com", user.Email)
	})

	mt.Run("count users by email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "web3.users", mtest.FirstBatch, bson.D{
			{Key: "n", Value: int32(2)},
		}))
		store := NewWithCollection(mt.Coll)

		n, err := store.CountUsersByEmail(ctx, "bob@x.com")

		require.NoError(mt, err)
		assert.Equal(mt, 2, n)
	})

	mt.Run("command errors are returned as is", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
		}))
		store := NewWithCollection(mt.Coll)

		_, err := store.FindUserByEmail(ctx, "bob@x.com")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, model.ErrUserNotFound)
		var cmdErr mongo.CommandError
		assert.ErrorAs(mt, err, &cmdErr)
	})
}
