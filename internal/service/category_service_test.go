package service

import (
	"context"
	"testing"

	"chezben/internal/domain"
	"chezben/internal/repository"
	"chezben/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	ctx := context.Background()
	admin := testutil.Caller(testutil.CreateUser(t, db, domain.RoleAdmin))
	user := testutil.Caller(testutil.CreateUser(t, db, domain.RoleUser))

	_, err := svc.Create(ctx, user, CategoryInput{Name: "Véhicules"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	parent, err := svc.Create(ctx, admin, CategoryInput{Name: "Véhicules"})
	require.NoError(t, err)
	assert.Equal(t, "vehicules", parent.Slug)

	child, err := svc.Create(ctx, admin, CategoryInput{Name: "Motos", ParentID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *child.ParentID)

	_, err = svc.Create(ctx, admin, CategoryInput{Name: "Vehicules"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Update(ctx, admin, parent.ID, CategoryInput{Name: "Véhicules", ParentID: &parent.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missing := uint(9999)
	_, err = svc.Create(ctx, admin, CategoryInput{Name: "Orphelin", ParentID: &missing})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, admin, child.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, child.ID), domain.ErrNotFound)
	_, err = svc.Get(ctx, child.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
