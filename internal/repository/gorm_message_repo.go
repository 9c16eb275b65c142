package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Append persists a message and returns it with the sender resolved, so
// broadcast payloads can carry the sender's display name without a second
// round trip at the call site.
func (r *GormMessageRepository) Append(ctx context.Context, msg *domain.MessageModel) (*domain.Message, error) {
	l := log.Ctx(ctx)

	if result := r.db.WithContext(ctx).Create(msg); result.Error != nil {
		l.Error().Err(result.Error).
			Uint(log.FieldGroupID, msg.GroupID).
			Uint(log.FieldUserID, msg.SenderID).
			Msg("failed to append message in db")
		return nil, result.Error
	}

	var saved domain.MessageModel
	result := r.db.WithContext(ctx).
		Preload("Sender").
		First(&saved, "id = ?", msg.ID)
	if result.Error != nil {
		l.Error().Err(result.Error).Uint(log.FieldMessageID, msg.ID).Msg("failed to reload message after append")
		return nil, result.Error
	}

	l.Debug().Uint(log.FieldMessageID, saved.ID).Uint(log.FieldGroupID, saved.GroupID).Msg("message appended in db")
	return saved.ToDomain(), nil
}

// GetByID retrieves a message with its sender.
func (r *GormMessageRepository) GetByID(ctx context.Context, id uint) (*domain.Message, error) {
	l := log.Ctx(ctx)

	var model domain.MessageModel
	result := r.db.WithContext(ctx).
		Preload("Sender").
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		l.Error().Err(result.Error).Uint(log.FieldMessageID, id).Msg("failed to get message by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Remove deletes a message by id.
func (r *GormMessageRepository) Remove(ctx context.Context, id uint) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Delete(&domain.MessageModel{}, "id = ?", id)
	if result.Error != nil {
		l.Error().Err(result.Error).Uint(log.FieldMessageID, id).Msg("failed to remove message in db")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	l.Debug().Uint(log.FieldMessageID, id).Msg("message removed in db")
	return nil
}

// ListByGroup retrieves a group's messages in creation order.
func (r *GormMessageRepository) ListByGroup(ctx context.Context, groupID uint) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Preload("Sender").
		Where("group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Uint(log.FieldGroupID, groupID).Msg("failed to list messages from db")
		return nil, result.Error
	}

	messages := make([]domain.Message, len(models))
	for i := range models {
		messages[i] = *models[i].ToDomain()
	}
	return messages, nil
}
