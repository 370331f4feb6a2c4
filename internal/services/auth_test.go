package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
	"github.com/worknest/worknest/internal/store/memory"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := NewAuthService(mem, mem)

	user, err := svc.Register(ctx, "Dev@WorkNest.dev", "hunter2hunter2", "Dev")
	require.NoError(t, err)
	assert.Equal(t, "dev@worknest.dev", user.Email, "email is normalized")
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

	_, err = svc.Register(ctx, "dev@worknest.dev", "hunter2hunter2", "Dup")
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.Register(ctx, "not-an-email", "hunter2hunter2", "X")
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.Register(ctx, "short@worknest.dev", "short", "X")
	requireKind(t, err, apperr.KindValidation)

	loggedIn, token, err := svc.Login(ctx, "dev@worknest.dev", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	require.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "dev@worknest.dev", "wrong-password")
	requireKind(t, err, apperr.KindAuthentication)
	_, _, err = svc.Login(ctx, "ghost@worknest.dev", "hunter2hunter2")
	requireKind(t, err, apperr.KindAuthentication)

	resolved, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	_, err = svc.ValidateToken(ctx, "bogus")
	requireKind(t, err, apperr.KindAuthentication)
	_, err = svc.ValidateToken(ctx, "")
	requireKind(t, err, apperr.KindAuthentication)
}

type wrappingUserStore struct {
	store.UserStore
}

func (w wrappingUserStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := w.UserStore.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func TestRegisterDuplicateThroughWrappingStore(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	svc := NewAuthService(wrappingUserStore{UserStore: mem}, mem)

	_, err := svc.Register(ctx, "dev@worknest.dev", "hunter2hunter2", "Dev")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "dev@worknest.dev", "hunter2hunter2", "Dup")
	requireKind(t, err, apperr.KindValidation)
}
