package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAd_Validation(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()
	author := f.seedUser("author", "Sam", "sam@campus.edu", domain.RoleUser)

	until := time.Now().UTC().Add(14 * 24 * time.Hour)

	ad, err := f.adUC.CreateAd(ctx, author, CreateAdInput{
		Title:          "Physics notes",
		Price:          "R$ 15,00",
		AvailableUntil: until,
	})
	require.NoError(t, err)
	assert.Equal(t, "author", ad.AuthorID)
	assert.Equal(t, domain.AdStatusActive, ad.Status)
	assert.False(t, ad.ID.IsZero())

	_, err = f.adUC.CreateAd(ctx, author, CreateAdInput{Price: "R$ 15,00", AvailableUntil: until})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.adUC.CreateAd(ctx, author, CreateAdInput{Title: "x", AvailableUntil: until})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.adUC.CreateAd(ctx, author, CreateAdInput{Title: "x", Price: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateAd_OwnershipGuard(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	owner := f.seedUser("owner", "Sam", "sam@campus.edu", domain.RoleUser)
	stranger := f.seedUser("stranger", "Eve", "eve@campus.edu", domain.RoleUser)
	admin := f.seedUser("admin", "Root", "root@campus.edu", domain.RoleAdmin)
	ad := f.seedAd("owner", "Desk lamp", "R$ 40,00")

	title := "Desk lamp (like new)"
	_, err := f.adUC.UpdateAd(ctx, stranger, ad.ID.Hex(), domain.AdUpdate{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := f.adUC.UpdateAd(ctx, owner, ad.ID.Hex(), domain.AdUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	sold := domain.AdStatusSold
	updated, err = f.adUC.UpdateAd(ctx, admin, ad.ID.Hex(), domain.AdUpdate{Status: &sold})
	require.NoError(t, err)
	assert.Equal(t, domain.AdStatusSold, updated.Status)

	bogus := domain.AdStatus("archived")
	_, err = f.adUC.UpdateAd(ctx, owner, ad.ID.Hex(), domain.AdUpdate{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteAd_OwnershipGuard(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	owner := f.seedUser("owner", "Sam", "sam@campus.edu", domain.RoleUser)
	stranger := f.seedUser("stranger", "Eve", "eve@campus.edu", domain.RoleUser)
	ad := f.seedAd("owner", "Desk lamp", "R$ 40,00")

	err := f.adUC.DeleteAd(ctx, stranger, ad.ID.Hex())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.adUC.DeleteAd(ctx, owner, ad.ID.Hex()))

	_, err = f.adUC.GetAd(ctx, ad.ID.Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchAds(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	f.seedAd("a", "Calculus textbook", "R$ 50,00")
	f.seedAd("a", "Mini fridge", "R$ 200,00")
	f.seedAd("b", "Linear algebra textbook", "R$ 45,00")

	ads, err := f.adUC.SearchAds(ctx, "textbook")
	require.NoError(t, err)
	assert.Len(t, ads, 2)

	ads, err = f.adUC.SearchAds(ctx, "")
	require.NoError(t, err)
	assert.Len(t, ads, 3)

	mine, err := f.adUC.ListMyAds(ctx, domain.Principal{UserID: "a", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
