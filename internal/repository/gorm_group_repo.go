package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/pkg/log"
)

// GormGroupRepository implements GroupRepository using GORM.
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GORM-based group repository.
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// Create inserts a new group.
func (r *GormGroupRepository) Create(ctx context.Context, group *domain.GroupModel) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Create(group)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create group in db")
		return result.Error
	}
	l.Debug().Uint(log.FieldGroupID, group.ID).Msg("group created in db")
	return nil
}

// GetByID retrieves a group with its creator and members.
func (r *GormGroupRepository) GetByID(ctx context.Context, id uint) (*domain.Group, error) {
	l := log.Ctx(ctx)

	var model domain.GroupModel
	result := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("Memberships", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Memberships.User").
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		l.Error().Err(result.Error).Uint(log.FieldGroupID, id).Msg("failed to get group by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List retrieves all groups with creators and members, newest first.
func (r *GormGroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	l := log.Ctx(ctx)

	var models []domain.GroupModel
	result := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("Memberships.User").
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to list groups from db")
		return nil, result.Error
	}

	groups := make([]domain.Group, len(models))
	for i := range models {
		groups[i] = *models[i].ToDomain()
	}
	return groups, nil
}

// ListByMember retrieves the groups a user belongs to, most recently
// joined first.
func (r *GormGroupRepository) ListByMember(ctx context.Context, userID uint) ([]domain.Group, error) {
	l := log.Ctx(ctx)

	var memberships []domain.MembershipModel
	result := r.db.WithContext(ctx).
		Preload("Group.CreatedBy").
		Preload("Group.Memberships.User").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&memberships)
	if result.Error != nil {
		l.Error().Err(result.Error).Uint(log.FieldUserID, userID).Msg("failed to list user groups from db")
		return nil, result.Error
	}

	groups := make([]domain.Group, len(memberships))
	for i := range memberships {
		groups[i] = *memberships[i].Group.ToDomain()
	}
	return groups, nil
}

// Delete removes a group and cascades to its memberships and messages in a
// single transaction.
func (r *GormGroupRepository) Delete(ctx context.Context, id uint) error {
	l := log.Ctx(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&domain.MembershipModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&domain.MessageModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.GroupModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGroupNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return err
		}
		l.Error().Err(err).Uint(log.FieldGroupID, id).Msg("failed to delete group in db")
		return err
	}
	l.Debug().Uint(log.FieldGroupID, id).Msg("group deleted in db")
	return nil
}
