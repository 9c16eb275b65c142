// Package seed creates the default development accounts on startup when
// seeding is enabled.
package seed

import (
	"context"
	"errors"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/service"
	"github.com/git-mahad/group-chat/pkg/log"
)

var defaults = []domain.RegisterRequest{
	{Name: "Admin User", Email: "admin@example.com", Password: "admin123", Role: string(domain.RoleAdmin)},
	{Name: "Regular User", Email: "user@example.com", Password: "user123", Role: string(domain.RoleMember)},
}

// Run registers the default accounts, skipping any that already exist.
func Run(ctx context.Context, auth service.AuthService) error {
	l := log.Ctx(ctx)

	for i := range defaults {
		req := defaults[i]
		user, err := auth.Register(ctx, &req)
		if err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				continue
			}
			return err
		}
		l.Info().Uint(log.FieldUserID, user.ID).Str("email", user.Email).Msg("seeded default account")
	}
	return nil
}
