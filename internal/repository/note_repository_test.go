package repository_test

import (
	"context"
	"testing"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/repository"
	"github.com/donorflow/donation-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestNote(t *testing.T, repo *repository.NoteRepository, entityID int64, noteType domain.NoteType, content string, approved bool) *domain.Note {
	t.Helper()
	note := &domain.Note{
		EntityID: entityID,
		Type:     noteType,
		Content:  content,
		Author:   "Tester",
		Approved: approved,
	}
	require.NoError(t, repo.Create(context.Background(), note))
	return note
}

func TestNoteRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNoteRepository(db)

	note := createTestNote(t, repo, 1, domain.NoteTypeDonation, "internal remark", true)
	assert.NotEqual(t, uuid.Nil, note.ID, "id is assigned on create")
}

func TestNoteRepository_CreatePreservesApprovalFlag(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNoteRepository(db)

	note := createTestNote(t, repo, 1, domain.NoteTypeComment, "awaiting moderation", false)

	var stored domain.Note
	require.NoError(t, db.First(&stored, "id = ?", note.ID).Error)
	assert.False(t, stored.Approved, "an unapproved note must not be stored as approved")

	approved := createTestNote(t, repo, 1, domain.NoteTypeComment, "fine as is", true)
	var storedApproved domain.Note
	require.NoError(t, db.First(&storedApproved, "id = ?", approved.ID).Error)
	assert.True(t, storedApproved.Approved)
}

func TestNoteRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNoteRepository(db)
	ctx := context.Background()

	note := createTestNote(t, repo, 1, domain.NoteTypeDonation, "to remove", true)

	// Wrong entity or type does not match
	removed, err := repo.Delete(ctx, note.ID, 2, domain.NoteTypeDonation)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.Delete(ctx, note.ID, 1, domain.NoteTypeDonor)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.Delete(ctx, note.ID, 1, domain.NoteTypeDonation)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestNoteRepository_ListByEntity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNoteRepository(db)
	ctx := context.Background()

	createTestNote(t, repo, 1, domain.NoteTypeDonation, "first remark", true)
	createTestNote(t, repo, 1, domain.NoteTypeDonation, "refund issued", true)
	createTestNote(t, repo, 1, domain.NoteTypeDonor, "donor remark", true)
	createTestNote(t, repo, 2, domain.NoteTypeDonation, "other entity", true)

	notes, err := repo.ListByEntity(ctx, 1, domain.NoteTypeDonation, "")
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	notes, err = repo.ListByEntity(ctx, 1, domain.NoteTypeDonation, "refund")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "refund issued", notes[0].Content)
}

func TestNoteRepository_ListCommentsExcludesInternalTypes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNoteRepository(db)
	ctx := context.Background()

	createTestNote(t, repo, 1, domain.NoteTypeComment, "public comment", true)
	createTestNote(t, repo, 1, domain.NoteTypeDonation, "internal donation note", true)
	createTestNote(t, repo, 1, domain.NoteTypeDonor, "internal donor note", true)

	comments, total, err := repo.ListComments(ctx, domain.HiddenNoteTypes(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, comments, 1)
	assert.Equal(t, "public comment", comments[0].Content)
}

func TestNoteRepository_CountByApproval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNoteRepository(db)
	ctx := context.Background()

	createTestNote(t, repo, 1, domain.NoteTypeComment, "approved one", true)
	createTestNote(t, repo, 1, domain.NoteTypeComment, "approved two", true)
	createTestNote(t, repo, 2, domain.NoteTypeComment, "awaiting", false)
	// Internal notes are approved but must not count
	createTestNote(t, repo, 1, domain.NoteTypeDonation, "internal", true)

	approved, pending, err := repo.CountByApproval(ctx, domain.HiddenNoteTypes())
	require.NoError(t, err)
	assert.Equal(t, int64(2), approved)
	assert.Equal(t, int64(1), pending)
}
