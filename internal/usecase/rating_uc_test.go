package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRating_AggregatesAndReplace(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()

	seller := f.seedUser("seller", "Sam", "sam@campus.edu", domain.RoleUser)
	buyerA := f.seedUser("buyer-a", "Ana", "ana@campus.edu", domain.RoleUser)
	buyerB := f.seedUser("buyer-b", "Bia", "bia@campus.edu", domain.RoleUser)
	_ = seller
	ad := f.seedAd("seller", "Desk lamp", "R$ 40,00")

	adAfter, err := f.ratingUC.SubmitRating(ctx, buyerA, ad.ID.Hex(), 4, "works fine")
	require.NoError(t, err)
	assert.Equal(t, int32(1), adAfter.RatingCount)
	assert.Equal(t, 4.0, adAfter.AverageRating)

	adAfter, err = f.ratingUC.SubmitRating(ctx, buyerB, ad.ID.Hex(), 2, "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), adAfter.RatingCount)
	assert.Equal(t, 3.0, adAfter.AverageRating)

	// re-submission replaces, it never adds a second entry
	adAfter, err = f.ratingUC.SubmitRating(ctx, buyerB, ad.ID.Hex(), 5, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, int32(2), adAfter.RatingCount)
	assert.Equal(t, 4.5, adAfter.AverageRating)

	rating := adAfter.RatingBy("buyer-b")
	require.NotNil(t, rating)
	assert.Equal(t, int32(5), rating.Value)
	assert.Equal(t, "changed my mind", rating.Comment)
}

func TestSubmitRating_SelfRatingRejected(t *testing.T) {
	f := newFixtures()

	seller := f.seedUser("seller", "Sam", "sam@campus.edu", domain.RoleUser)
	ad := f.seedAd("seller", "Desk lamp", "R$ 40,00")

	// rating your own ad is a validation error, not an authorization one
	_, err := f.ratingUC.SubmitRating(context.Background(), seller, ad.ID.Hex(), 5, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrForbidden)

	stored, err := f.ads.FindByID(context.Background(), ad.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int32(0), stored.RatingCount)
}

func TestSubmitRating_Validation(t *testing.T) {
	f := newFixtures()
	buyer := f.seedUser("buyer", "Ana", "ana@campus.edu", domain.RoleUser)
	ad := f.seedAd("seller", "Desk lamp", "R$ 40,00")

	for _, value := range []int32{0, 6, -1} {
		_, err := f.ratingUC.SubmitRating(context.Background(), buyer, ad.ID.Hex(), value, "")
		require.Error(t, err, "value %d must be rejected", value)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	// malformed ad id is ErrInvalidInput, same as the Mongo adapter
	_, err := f.ratingUC.SubmitRating(context.Background(), buyer, "missing", 3, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmitRating_MissingAd(t *testing.T) {
	f := newFixtures()
	buyer := f.seedUser("buyer", "Ana", "ana@campus.edu", domain.RoleUser)

	deleted := f.seedAd("seller", "gone", "R$ 1,00")
	require.NoError(t, f.ads.Delete(context.Background(), deleted.ID.Hex()))

	_, err := f.ratingUC.SubmitRating(context.Background(), buyer, deleted.ID.Hex(), 3, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveRating(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()
	buyer := f.seedUser("buyer", "Ana", "ana@campus.edu", domain.RoleUser)
	ad := f.seedAd("seller", "Desk lamp", "R$ 40,00")

	_, err := f.ratingUC.SubmitRating(ctx, buyer, ad.ID.Hex(), 4, "")
	require.NoError(t, err)

	adAfter, err := f.ratingUC.RemoveRating(ctx, buyer, ad.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int32(0), adAfter.RatingCount)
	assert.Equal(t, 0.0, adAfter.AverageRating)

	// removing again is a no-op, not an error
	adAfter, err = f.ratingUC.RemoveRating(ctx, buyer, ad.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int32(0), adAfter.RatingCount)
}

func TestSubmitRating_ConcurrentSameUser(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()
	buyer := f.seedUser("buyer", "Ana", "ana@campus.edu", domain.RoleUser)
	ad := f.seedAd("seller", "Desk lamp", "R$ 40,00")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(value int32) {
			defer wg.Done()
			_, err := f.ratingUC.SubmitRating(ctx, buyer, ad.ID.Hex(), value, "")
			assert.NoError(t, err)
		}(int32(i%5 + 1))
	}
	wg.Wait()

	stored, err := f.ads.FindByID(ctx, ad.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int32(1), stored.RatingCount, "concurrent submissions by one user must leave exactly one rating")
	assert.Len(t, stored.Ratings, 1)
	assert.Equal(t, float64(stored.Ratings[0].Value), stored.AverageRating)
}

func TestListUserRatings(t *testing.T) {
	f := newFixtures()
	ctx := context.Background()
	buyer := f.seedUser("buyer", "Ana", "ana@campus.edu", domain.RoleUser)

	for i := 0; i < 3; i++ {
		ad := f.seedAd("seller", fmt.Sprintf("Item %d", i), "R$ 10,00")
		_, err := f.ratingUC.SubmitRating(ctx, buyer, ad.ID.Hex(), int32(i+1), "")
		require.NoError(t, err)
	}

	ratings, err := f.ratingUC.ListUserRatings(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, ratings, 3)
	for _, r := range ratings {
		assert.NotEmpty(t, r.AdTitle)
	}
}
