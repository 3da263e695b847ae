package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mongoRepo "github.com/campusmarket/marketplace-service/internal/adapter/repository/mongodb"
	"github.com/campusmarket/marketplace-service/internal/domain"
	platformLogger "github.com/campusmarket/marketplace-service/internal/platform/logger"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	testDBClient   *mongo.Client
	testAdRepo     *mongoRepo.AdRepository
	testReportRepo *mongoRepo.ReportRepository
	testUserRepo   *mongoRepo.UserRepository
	testLogger     *platformLogger.Logger
)

// TestMain spins up a disposable MongoDB and wires the repositories
// against it.
func TestMain(m *testing.M) {
	testLogger = platformLogger.NewNop()

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	mongoResource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6.0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start mongo container: %s", err)
	}

	mongoURI := fmt.Sprintf("mongodb://localhost:%s", mongoResource.GetPort("27017/tcp"))
	if err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
		if err != nil {
			return err
		}
		if err := client.Ping(ctx, nil); err != nil {
			return err
		}
		testDBClient = client
		return nil
	}); err != nil {
		log.Fatalf("Could not connect to mongo container: %s", err)
	}

	db := testDBClient.Database("marketplace_test")
	testAdRepo, err = mongoRepo.NewAdRepository(db, testLogger)
	if err != nil {
		log.Fatalf("Could not create ad repository: %s", err)
	}
	testReportRepo, err = mongoRepo.NewReportRepository(db, testLogger)
	if err != nil {
		log.Fatalf("Could not create report repository: %s", err)
	}
	testUserRepo = mongoRepo.NewUserRepository(db, testLogger)

	code := m.Run()

	if err := pool.Purge(mongoResource); err != nil {
		log.Printf("Could not purge mongo container: %s", err)
	}
	os.Exit(code)
}

func seedAd(t *testing.T, title, price string) *domain.Ad {
	t.Helper()
	ad := &domain.Ad{
		Title:          title,
		Price:          price,
		AuthorID:       "seller-1",
		Status:         domain.AdStatusActive,
		AvailableUntil: time.Now().UTC().Add(30 * 24 * time.Hour),
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, testAdRepo.Create(context.Background(), ad))
	return ad
}

func TestAdRepository_RatingUpsertRace(t *testing.T) {
	ctx := context.Background()
	ad := seedAd(t, "Race bike", "R$ 500,00")

	// many concurrent submissions by the same user must collapse into a
	// single rating with consistent aggregates
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(value int32) {
			defer wg.Done()
			rating := &domain.Rating{
				UserID:    "buyer-1",
				Value:     value,
				CreatedAt: time.Now().UTC(),
			}
			assert.NoError(t, testAdRepo.UpsertRating(ctx, ad.ID.Hex(), rating))
		}(int32(i%5 + 1))
	}
	wg.Wait()

	stored, err := testAdRepo.FindByID(ctx, ad.ID.Hex())
	require.NoError(t, err)
	require.Len(t, stored.Ratings, 1)
	assert.Equal(t, int32(1), stored.RatingCount)
	assert.Equal(t, float64(stored.Ratings[0].Value), stored.AverageRating)
}

func TestAdRepository_RatingAggregates(t *testing.T) {
	ctx := context.Background()
	ad := seedAd(t, "Desk", "R$ 100,00")

	for i, value := range []int32{4, 5, 5} {
		rating := &domain.Rating{
			UserID:    fmt.Sprintf("buyer-%d", i),
			Value:     value,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, testAdRepo.UpsertRating(ctx, ad.ID.Hex(), rating))
	}

	stored, err := testAdRepo.FindByID(ctx, ad.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int32(3), stored.RatingCount)
	assert.Equal(t, 4.7, stored.AverageRating)

	require.NoError(t, testAdRepo.RemoveRating(ctx, ad.ID.Hex(), "buyer-0"))
	stored, err = testAdRepo.FindByID(ctx, ad.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int32(2), stored.RatingCount)
	assert.Equal(t, 5.0, stored.AverageRating)

	// removing an absent rating leaves the document untouched
	require.NoError(t, testAdRepo.RemoveRating(ctx, ad.ID.Hex(), "nobody"))
	stored, err = testAdRepo.FindByID(ctx, ad.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int32(2), stored.RatingCount)
}

func TestReportRepository_OpenUniquenessUnderRace(t *testing.T) {
	ctx := context.Background()
	ad := seedAd(t, "Shady phone", "R$ 50,00")
	reporter := &domain.User{ID: "reporter-1", Name: "Ana", Email: "ana@campus.edu"}

	var created, conflicted int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := domain.NewReport(ad, reporter, "scam", "")
			if !assert.NoError(t, err) {
				return
			}
			switch err := testReportRepo.Create(ctx, report); err {
			case nil:
				atomic.AddInt64(&created, 1)
			case domain.ErrDuplicateReport:
				atomic.AddInt64(&conflicted, 1)
			default:
				assert.Fail(t, "unexpected error", err.Error())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), created)
	assert.Equal(t, int64(9), conflicted)

	// resolving the winner frees the (ad, reporter) slot
	reports, err := testReportRepo.FindByAd(ctx, ad.ID.Hex())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	reports[0].Status = domain.ReportStatusResolved
	reports[0].UpdatedAt = time.Now().UTC()
	require.NoError(t, testReportRepo.Update(ctx, reports[0]))

	fresh, err := domain.NewReport(ad, reporter, "still listed", "")
	require.NoError(t, err)
	assert.NoError(t, testReportRepo.Create(ctx, fresh))
}

func TestAdRepository_PromotionSnapshotIdempotent(t *testing.T) {
	ctx := context.Background()
	ad := seedAd(t, "Guitar", "R$ 800,00")

	updated, err := testAdRepo.ActivatePromotion(ctx, ad.ID.Hex(), "Oferta", nil)
	require.NoError(t, err)
	assert.True(t, updated.PromotionActive)
	assert.Equal(t, "R$ 800,00", updated.OriginalPrice)

	// price drops, promotion re-activated: the snapshot must survive
	discounted := "R$ 600,00"
	_, err = testAdRepo.UpdateFields(ctx, ad.ID.Hex(), domain.AdUpdate{Price: &discounted})
	require.NoError(t, err)

	updated, err = testAdRepo.ActivatePromotion(ctx, ad.ID.Hex(), "Oferta relâmpago", nil)
	require.NoError(t, err)
	assert.Equal(t, "R$ 800,00", updated.OriginalPrice)
	assert.Equal(t, "R$ 600,00", updated.Price)

	updated, err = testAdRepo.DeactivatePromotion(ctx, ad.ID.Hex())
	require.NoError(t, err)
	assert.False(t, updated.PromotionActive)
	assert.Empty(t, updated.PromotionLabel)
	assert.Equal(t, "R$ 800,00", updated.OriginalPrice)
	assert.Equal(t, "R$ 600,00", updated.Price)
}

func TestUserRepository_FavoritesSet(t *testing.T) {
	ctx := context.Background()

	user := &domain.User{
		ID:        "fav-user",
		Name:      "Ana",
		Email:     "ana@campus.edu",
		Role:      domain.RoleUser,
		Status:    domain.UserStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	_, err := testDBClient.Database("marketplace_test").Collection("users").InsertOne(ctx, map[string]interface{}{
		"_id":        user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       string(user.Role),
		"status":     string(user.Status),
		"favorites":  []string{},
		"created_at": user.CreatedAt,
	})
	require.NoError(t, err)

	require.NoError(t, testUserRepo.AddFavorite(ctx, user.ID, "ad-1"))
	require.NoError(t, testUserRepo.AddFavorite(ctx, user.ID, "ad-1"))
	require.NoError(t, testUserRepo.AddFavorite(ctx, user.ID, "ad-2"))

	favorites, err := testUserRepo.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ad-1", "ad-2"}, favorites)

	require.NoError(t, testUserRepo.RemoveFavorite(ctx, user.ID, "ad-1"))
	require.NoError(t, testUserRepo.RemoveFavorite(ctx, user.ID, "ad-1"))

	favorites, err = testUserRepo.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ad-2"}, favorites)
}
