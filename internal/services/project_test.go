package services

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store/memory"
)

type projectHarness struct {
	svc   *ProjectService
	store *memory.Store
	owner *models.User
	other *models.User
}

func newProjectHarness(t *testing.T) *projectHarness {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	log := logger.New(io.Discard, logger.LevelError, "[test]")

	svc := NewProjectService(mem, mem, mem, log)
	guard, err := authz.NewGuard(mem)
	require.NoError(t, err)
	svc.SetGuard(guard)

	owner := &models.User{ID: "u-owner", Email: "owner@worknest.dev", Name: "Owner"}
	other := &models.User{ID: "u-other", Email: "other@worknest.dev", Name: "Other"}
	require.NoError(t, mem.CreateUser(ctx, owner))
	require.NoError(t, mem.CreateUser(ctx, other))
	return &projectHarness{svc: svc, store: mem, owner: owner, other: other}
}

func TestCreateProjectInstallsOwnerAndColumns(t *testing.T) {
	h := newProjectHarness(t)
	ctx := context.Background()

	p, err := h.svc.Create(ctx, h.owner, "Engine Room", "", "Engine")
	require.NoError(t, err)

	require.Len(t, p.Members, 1)
	assert.Equal(t, h.owner.ID, p.Members[0].UserID)
	assert.Equal(t, models.RoleOwner, p.Members[0].Role)
	require.Len(t, p.Columns, 3)
	assert.Equal(t, "todo", p.Columns[0].ID)
	assert.True(t, p.Settings.AllowComments)

	_, err = h.svc.Create(ctx, h.owner, "", "", "")
	requireKind(t, err, apperr.KindValidation)
}

func TestMembershipRules(t *testing.T) {
	h := newProjectHarness(t)
	ctx := context.Background()

	p, err := h.svc.Create(ctx, h.owner, "Engine Room", "", "Engine")
	require.NoError(t, err)

	// Owner role cannot be granted.
	_, err = h.svc.AddMember(ctx, h.owner, p.ID, h.other.ID, models.RoleOwner)
	requireKind(t, err, apperr.KindValidation)

	m, err := h.svc.AddMember(ctx, h.owner, p.ID, h.other.ID, models.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)

	_, err = h.svc.AddMember(ctx, h.owner, p.ID, h.other.ID, models.RoleMember)
	requireKind(t, err, apperr.KindValidation)

	// Plain members cannot manage membership.
	_, err = h.svc.AddMember(ctx, h.other, p.ID, "u-anyone", models.RoleViewer)
	requireKind(t, err, apperr.KindAuthorization)

	// The owner's own role and membership are immutable through these ops.
	err = h.svc.UpdateMemberRole(ctx, h.owner, p.ID, h.owner.ID, models.RoleViewer)
	requireKind(t, err, apperr.KindValidation)
	err = h.svc.RemoveMember(ctx, h.owner, p.ID, h.owner.ID)
	requireKind(t, err, apperr.KindValidation)

	require.NoError(t, h.svc.UpdateMemberRole(ctx, h.owner, p.ID, h.other.ID, models.RoleAdmin))
	require.NoError(t, h.svc.RemoveMember(ctx, h.owner, p.ID, h.other.ID))
}

func TestProjectGetRequiresMembership(t *testing.T) {
	h := newProjectHarness(t)
	ctx := context.Background()

	p, err := h.svc.Create(ctx, h.owner, "Engine Room", "", "Engine")
	require.NoError(t, err)

	_, err = h.svc.Get(ctx, h.other, p.ID)
	requireKind(t, err, apperr.KindAuthorization)

	// A missing project is 404 even for non-members.
	_, err = h.svc.Get(ctx, h.other, "p-ghost")
	requireKind(t, err, apperr.KindNotFound)
}

func TestSetColumnsReindexesPositions(t *testing.T) {
	h := newProjectHarness(t)
	ctx := context.Background()

	p, err := h.svc.Create(ctx, h.owner, "Engine Room", "", "Engine")
	require.NoError(t, err)

	err = h.svc.SetColumns(ctx, h.owner, p.ID, []models.Column{
		{ID: "done", Title: "Done", Position: 9},
		{ID: "todo", Title: "To Do", Position: 9},
	})
	require.NoError(t, err)

	got, err := h.svc.Get(ctx, h.owner, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Columns, 2)
	assert.Equal(t, 0, got.Columns[0].Position)
	assert.Equal(t, "done", got.Columns[0].ID)
	assert.Equal(t, 1, got.Columns[1].Position)

	err = h.svc.SetColumns(ctx, h.owner, p.ID, []models.Column{{ID: "", Title: ""}})
	requireKind(t, err, apperr.KindValidation)
}
