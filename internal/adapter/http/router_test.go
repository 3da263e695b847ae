package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusmarket/marketplace-service/internal/adapter/repository/memory"
	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/mailer"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"github.com/campusmarket/marketplace-service/internal/platform/metrics"
	"github.com/campusmarket/marketplace-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	ads    *memory.AdRepository
	users  *memory.UserRepository
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()

	ads := memory.NewAdRepository()
	reports := memory.NewReportRepository()
	users := memory.NewUserRepository()

	adUC := usecase.NewAdUsecase(ads, nil, nopPublisher{}, log)
	ratingUC := usecase.NewRatingUsecase(ads, nil, nopPublisher{}, log)
	reportUC := usecase.NewReportUsecase(reports, ads, users, nopPublisher{}, mailer.NoopSender{}, log)
	promotionUC := usecase.NewPromotionUsecase(ads, nil, nopPublisher{}, log)
	favoriteUC := usecase.NewFavoriteUsecase(users, ads, nopPublisher{}, log)
	userUC := usecase.NewUserUsecase(users, nopPublisher{}, log)

	handler := NewHandler(adUC, ratingUC, reportUC, promotionUC, favoriteUC, userUC, metrics.NewManager("test"), log)
	router := NewRouter(handler, testSecret, "marketplace-service-test", log)

	return &testEnv{router: router, ads: ads, users: users}
}

func (e *testEnv) seedUser(id string, role domain.Role) {
	e.users.Seed(&domain.User{
		ID:        id,
		Name:      id,
		Email:     id + "@campus.edu",
		Role:      role,
		Status:    domain.UserStatusActive,
		CreatedAt: time.Now().UTC(),
	})
}

func (e *testEnv) seedAd(authorID, title string) *domain.Ad {
	ad := &domain.Ad{
		Title:          title,
		Price:          "R$ 10,00",
		AuthorID:       authorID,
		Status:         domain.AdStatusActive,
		AvailableUntil: time.Now().UTC().Add(24 * time.Hour),
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.ads.Create(context.Background(), ad); err != nil {
		panic(err)
	}
	return ad
}

func signToken(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRouter_AuthRequired(t *testing.T) {
	env := newTestEnv(t)
	ad := env.seedAd("seller", "Desk lamp")

	w := env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/ratings", "", gin.H{"rating": 4})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/ratings", "not-a-token", gin.H{"rating": 4})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// public reads work without a token
	w = env.request(t, http.MethodGet, "/ads/"+ad.ID.Hex(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RatingFlowAndErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("buyer", domain.RoleUser)
	env.seedUser("seller", domain.RoleUser)
	ad := env.seedAd("seller", "Desk lamp")
	buyerToken := signToken(t, "buyer", domain.RoleUser)
	sellerToken := signToken(t, "seller", domain.RoleUser)

	// the request body carries the value under "rating"
	w := env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/ratings", buyerToken, gin.H{"rating": 4, "comment": "good"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp adResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int32(1), resp.RatingCount)
	assert.Equal(t, 4.0, resp.AverageRating)

	// out-of-range value maps to 400
	w = env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/ratings", buyerToken, gin.H{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// self-rating is a validation error, so it maps to 400 too
	w = env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/ratings", sellerToken, gin.H{"rating": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown ad maps to 404
	w = env.request(t, http.MethodGet, "/ads/000000000000000000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ReportConflictAndAdminGate(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("reporter", domain.RoleUser)
	env.seedUser("admin", domain.RoleAdmin)
	ad := env.seedAd("seller", "Suspicious bike")
	reporterToken := signToken(t, "reporter", domain.RoleUser)
	adminToken := signToken(t, "admin", domain.RoleAdmin)

	w := env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/report", reporterToken, gin.H{"reason": "scam"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created reportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)

	// duplicate open report maps to 409
	w = env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/report", reporterToken, gin.H{"reason": "scam"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// the moderation queue is admin only
	w = env.request(t, http.MethodGet, "/admin/reports", reporterToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodGet, "/admin/reports", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// a notes-only PATCH leaves the status alone
	w = env.request(t, http.MethodPatch, "/admin/reports/"+created.ID, adminToken, gin.H{"adminNotes": "under review"})
	require.Equal(t, http.StatusOK, w.Code)
	var moderated reportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moderated))
	assert.Equal(t, "pending", moderated.Status)
	assert.Equal(t, "under review", moderated.AdminNotes)

	// illegal transition maps to 400
	w = env.request(t, http.MethodPatch, "/admin/reports/"+created.ID, adminToken, gin.H{"status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.request(t, http.MethodPatch, "/admin/reports/"+created.ID, adminToken, gin.H{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_FavoritesRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("user", domain.RoleUser)
	ad := env.seedAd("seller", "Desk lamp")
	token := signToken(t, "user", domain.RoleUser)

	w := env.request(t, http.MethodPost, "/user/favorites/"+ad.ID.Hex(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/user/favorites", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// the listing is a bare array of ad ids
	var favorites []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &favorites))
	assert.Equal(t, []string{ad.ID.Hex()}, favorites)

	w = env.request(t, http.MethodDelete, "/user/favorites/"+ad.ID.Hex(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/user/favorites", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &favorites))
	assert.Empty(t, favorites)
}

func TestRouter_PromotionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("owner", domain.RoleUser)
	env.seedUser("stranger", domain.RoleUser)
	ad := env.seedAd("owner", "Desk lamp")
	ownerToken := signToken(t, "owner", domain.RoleUser)
	strangerToken := signToken(t, "stranger", domain.RoleUser)

	w := env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/promotion", strangerToken, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/promotion", ownerToken, gin.H{"expiresAt": "not-a-date"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// both fields are optional, so activation works without a body at all
	w = env.request(t, http.MethodPost, "/ads/"+ad.ID.Hex()+"/promotion", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp adResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.PromotionActive)
	assert.NotEmpty(t, resp.PromotionLabel)
	assert.Equal(t, resp.Price, resp.OriginalPrice)

	w = env.request(t, http.MethodDelete, "/ads/"+ad.ID.Hex()+"/promotion", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.PromotionActive)
	assert.Equal(t, "R$ 10,00", resp.OriginalPrice)
}
