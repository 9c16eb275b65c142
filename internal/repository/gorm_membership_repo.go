package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/pkg/log"
)

// GormMembershipRepository implements MembershipRepository using GORM.
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GORM-based membership repository.
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Exists reports whether a membership row exists for (group, user).
func (r *GormMembershipRepository) Exists(ctx context.Context, groupID, userID uint) (bool, error) {
	l := log.Ctx(ctx)

	var count int64
	result := r.db.WithContext(ctx).Model(&domain.MembershipModel{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count)
	if result.Error != nil {
		l.Error().Err(result.Error).
			Uint(log.FieldGroupID, groupID).
			Uint(log.FieldUserID, userID).
			Msg("failed to check membership in db")
		return false, result.Error
	}
	return count > 0, nil
}

// Add inserts a membership row. The unique index on (group, user) makes a
// duplicate insert fail rather than merge.
func (r *GormMembershipRepository) Add(ctx context.Context, groupID, userID uint) error {
	l := log.Ctx(ctx)

	membership := &domain.MembershipModel{
		GroupID: groupID,
		UserID:  userID,
	}
	result := r.db.WithContext(ctx).Create(membership)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicateMembership
		}
		l.Error().Err(result.Error).
			Uint(log.FieldGroupID, groupID).
			Uint(log.FieldUserID, userID).
			Msg("failed to add membership in db")
		return result.Error
	}
	l.Debug().Uint(log.FieldGroupID, groupID).Uint(log.FieldUserID, userID).Msg("membership added in db")
	return nil
}

// Remove deletes the membership row for (group, user).
func (r *GormMembershipRepository) Remove(ctx context.Context, groupID, userID uint) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&domain.MembershipModel{})
	if result.Error != nil {
		l.Error().Err(result.Error).
			Uint(log.FieldGroupID, groupID).
			Uint(log.FieldUserID, userID).
			Msg("failed to remove membership in db")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	l.Debug().Uint(log.FieldGroupID, groupID).Uint(log.FieldUserID, userID).Msg("membership removed in db")
	return nil
}
