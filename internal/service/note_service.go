package service

import (
	"context"
	"fmt"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/metrics"
	"github.com/donorflow/donation-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoteService manages donation and donor notes in the shared note/comment
// store. Internal note types are kept out of every comment-facing query so
// payment details never surface in public comment listings.
type NoteService struct {
	notes   *repository.NoteRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewNoteService creates a new NoteService
func NewNoteService(notes *repository.NoteRepository, m *metrics.Metrics, logger *zap.Logger) *NoteService {
	return &NoteService{
		notes:   notes,
		metrics: m,
		logger:  logger,
	}
}

// Add attaches a note to a donation or donor and returns its id.
func (s *NoteService) Add(ctx context.Context, entityID int64, content string, noteType domain.NoteType, author string) (uuid.UUID, error) {
	if entityID == 0 || content == "" || noteType == "" {
		return uuid.Nil, fmt.Errorf("%w: entity id, content and note type are required", ErrInvalidInput)
	}

	note := &domain.Note{
		EntityID: entityID,
		Type:     noteType,
		Content:  content,
		Author:   author,
		Approved: true,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return uuid.Nil, err
	}
	s.metrics.NotesCreated.Inc()

	s.logger.Info("note added",
		zap.String("noteID", note.ID.String()),
		zap.Int64("entityID", entityID),
		zap.String("noteType", string(noteType)),
	)
	return note.ID, nil
}

// Delete removes a note. Returns false when no note matched the given
// id/entity/type combination.
func (s *NoteService) Delete(ctx context.Context, noteID uuid.UUID, entityID int64, noteType domain.NoteType) (bool, error) {
	if noteID == uuid.Nil || entityID == 0 || noteType == "" {
		return false, fmt.Errorf("%w: note id, entity id and note type are required", ErrInvalidInput)
	}

	removed, err := s.notes.Delete(ctx, noteID, entityID, noteType)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Debug("note deleted",
			zap.String("noteID", noteID.String()),
			zap.Int64("entityID", entityID),
		)
	}
	return removed, nil
}

// List returns the notes of one type attached to an entity, optionally
// filtered by a content search.
func (s *NoteService) List(ctx context.Context, entityID int64, search string, noteType domain.NoteType) ([]domain.Note, error) {
	if entityID == 0 || noteType == "" {
		return nil, fmt.Errorf("%w: entity id and note type are required", ErrInvalidInput)
	}
	return s.notes.ListByEntity(ctx, entityID, noteType, search)
}

// ListComments returns a page of the public comment surface. Donation and
// donor notes are always excluded.
func (s *NoteService) ListComments(ctx context.Context, page, pageSize int) ([]domain.Note, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return s.notes.ListComments(ctx, domain.HiddenNoteTypes(), page, pageSize)
}

// CommentCounts returns approved, pending and total counts for the public
// comment surface, with donation and donor notes excluded from all three.
func (s *NoteService) CommentCounts(ctx context.Context) (approved, pending, total int64, err error) {
	approved, pending, err = s.notes.CountByApproval(ctx, domain.HiddenNoteTypes())
	if err != nil {
		return 0, 0, 0, err
	}
	return approved, pending, approved + pending, nil
}
