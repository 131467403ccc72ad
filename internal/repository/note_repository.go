package repository

import (
	"context"
	"fmt"

	"github.com/donorflow/donation-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoteRepository handles database operations for the shared note/comment
// store. Internal donation and donor notes live in the same table as public
// comments; the comment-facing queries exclude the internal types so notes
// never leak into public listings or counts.
type NoteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create persists a note, assigning an id when the caller left it zero.
func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// Delete removes a note scoped to its entity and type so a caller holding a
// stale id cannot delete an unrelated record. Returns false when nothing
// matched.
func (r *NoteRepository) Delete(ctx context.Context, noteID uuid.UUID, entityID int64, noteType domain.NoteType) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND entity_id = ? AND note_type = ?", noteID, entityID, noteType).
		Delete(&domain.Note{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete note: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListByEntity returns the notes of one type attached to an entity, oldest
// first. A non-empty search filters on note content.
func (r *NoteRepository) ListByEntity(ctx context.Context, entityID int64, noteType domain.NoteType, search string) ([]domain.Note, error) {
	query := r.db.WithContext(ctx).
		Where("entity_id = ? AND note_type = ?", entityID, noteType)

	if search != "" {
		query = query.Where("content LIKE ?", "%"+search+"%")
	}

	var notes []domain.Note
	if err := query.Order("created_at ASC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// ListComments returns a page of public comments, newest first. Records of
// the excluded types never appear regardless of any other filter.
func (r *NoteRepository) ListComments(ctx context.Context, exclude []domain.NoteType, page, pageSize int) ([]domain.Note, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Note{})
	if len(exclude) > 0 {
		query = query.Where("note_type NOT IN (?)", exclude)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	offset := (page - 1) * pageSize
	var comments []domain.Note
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

// CountByApproval returns approved and pending comment counts with the
// excluded types removed from both.
func (r *NoteRepository) CountByApproval(ctx context.Context, exclude []domain.NoteType) (approved, pending int64, err error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Note{})
		if len(exclude) > 0 {
			q = q.Where("note_type NOT IN (?)", exclude)
		}
		return q
	}

	if err = base().Where("approved = ?", true).Count(&approved).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count approved comments: %w", err)
	}
	if err = base().Where("approved = ?", false).Count(&pending).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count pending comments: %w", err)
	}
	return approved, pending, nil
}
