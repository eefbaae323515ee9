package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"artshowcase/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func createArtist(t *testing.T, store *Store, username string) *models.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), username, "hash", "artist")
	require.NoError(t, err)
	return user
}

func createArtwork(t *testing.T, store *Store, owner *models.User, title string) *models.Artwork {
	t.Helper()

	artwork := &models.Artwork{
		Title:    title,
		UserID:   owner.ID,
		ImageURL: filepath.Join("uploads", title+".png"),
	}
	require.NoError(t, store.CreateArtwork(context.Background(), artwork))
	require.NotZero(t, artwork.ID)
	return artwork
}

func TestCreateUserConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := createArtist(t, store, "frida")
	assert.NotZero(t, user.ID)

	_, err := store.CreateUser(ctx, "frida", "other-hash", "artist")
	require.Error(t, err)
	assert.True(t, IsConflict(err), "ожидался ConflictError, получено %T: %v", err, err)
}

func TestGetUserByUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createArtist(t, store, "frida")

	user, err := store.GetUserByUsername(ctx, "frida")
	require.NoError(t, err)
	assert.Equal(t, "frida", user.Username)
	assert.Equal(t, "hash", user.Password)
	assert.Equal(t, "artist", user.Role)

	_, err = store.GetUserByUsername(ctx, "diego")
	assert.True(t, IsNotFound(err))
}

func TestListArtworkStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	frida := createArtist(t, store, "frida")
	diego := createArtist(t, store, "diego")
	first := createArtwork(t, store, frida, "autorretrato")
	createArtwork(t, store, diego, "mural")

	_, err := store.AddVote(ctx, first.ID, 4)
	require.NoError(t, err)
	avg, err := store.AddVote(ctx, first.ID, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, avg, 1e-9)

	all, err := store.ListArtworkStats(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "autorretrato", all[0].Title)
	assert.Equal(t, "frida", all[0].Artist)
	assert.True(t, all[0].AverageScore.Valid)
	assert.InDelta(t, 3.0, all[0].AverageScore.Float64, 1e-9)
	assert.Equal(t, int64(2), all[0].VotesCount)

	assert.Equal(t, "diego", all[1].Artist)
	assert.False(t, all[1].AverageScore.Valid, "без голосов средняя должна быть NULL")
	assert.Equal(t, int64(0), all[1].VotesCount)

	mine, err := store.ListArtworkStats(ctx, "diego")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mural", mine[0].Title)

	none, err := store.ListArtworkStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddVoteUnknownArtwork(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddVote(context.Background(), 42, 5)
	assert.True(t, IsNotFound(err))
}

func TestDeleteArtwork(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	frida := createArtist(t, store, "frida")
	artwork := createArtwork(t, store, frida, "autorretrato")
	_, err := store.AddVote(ctx, artwork.ID, 5)
	require.NoError(t, err)

	removed := false
	require.NoError(t, store.DeleteArtwork(ctx, artwork.ID, func() error {
		removed = true
		return nil
	}))
	assert.True(t, removed)

	_, err = store.GetArtwork(ctx, artwork.ID)
	assert.True(t, IsNotFound(err))

	// Голоса удаленной работы остаются в таблице.
	avg, err := store.AverageScore(ctx, artwork.ID)
	require.NoError(t, err)
	assert.True(t, avg.Valid)

	err = store.DeleteArtwork(ctx, artwork.ID, nil)
	assert.True(t, IsNotFound(err))
}

func TestDeleteArtworkRollsBackOnFileError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	frida := createArtist(t, store, "frida")
	artwork := createArtwork(t, store, frida, "autorretrato")

	fileErr := errors.New("permission denied")
	err := store.DeleteArtwork(ctx, artwork.ID, func() error { return fileErr })
	assert.ErrorIs(t, err, fileErr)

	got, err := store.GetArtwork(ctx, artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, "frida", got.User.Username)
}

func TestMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	frida := createArtist(t, store, "frida")
	diego := createArtist(t, store, "diego")
	fridaWork := createArtwork(t, store, frida, "autorretrato")
	diegoWork := createArtwork(t, store, diego, "mural")

	msg := &models.Message{
		ArtworkID:   fridaWork.ID,
		SenderName:  "Ana",
		SenderPhone: "555-0101",
		Text:        "¿Está a la venta?",
	}
	require.NoError(t, store.CreateMessage(ctx, msg))
	assert.Equal(t, frida.ID, msg.ArtistID)

	require.NoError(t, store.CreateMessage(ctx, &models.Message{
		ArtworkID:   diegoWork.ID,
		SenderName:  "Luis",
		SenderPhone: "555-0202",
		Text:        "Hola",
	}))

	err := store.CreateMessage(ctx, &models.Message{ArtworkID: 999, SenderName: "x", SenderPhone: "1", Text: "x"})
	assert.True(t, IsNotFound(err))

	got, err := store.ListMessagesForArtist(ctx, "frida")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].SenderName)
	assert.Equal(t, "555-0101", got[0].SenderPhone)
	assert.Equal(t, "¿Está a la venta?", got[0].Text)
	assert.Equal(t, fridaWork.ID, got[0].ArtworkID)

	empty, err := store.ListMessagesForArtist(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
