package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/campusmarket/marketplace-service/internal/adapter/repository/memory"
	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, interface{}) error { return nil }

type recordingMailer struct {
	mu    sync.Mutex
	sends []struct {
		To, Name, AdTitle, Notes string
	}
}

func (m *recordingMailer) SendReportResolved(_ context.Context, toEmail, reporterName, adTitle, adminNotes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, struct{ To, Name, AdTitle, Notes string }{toEmail, reporterName, adTitle, adminNotes})
	return nil
}

func (m *recordingMailer) sent() []struct{ To, Name, AdTitle, Notes string } {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]struct{ To, Name, AdTitle, Notes string }, len(m.sends))
	copy(out, m.sends)
	return out
}

type fixtures struct {
	ads     *memory.AdRepository
	reports *memory.ReportRepository
	users   *memory.UserRepository
	mailer  *recordingMailer

	adUC        *AdUsecase
	ratingUC    *RatingUsecase
	reportUC    *ReportUsecase
	promotionUC *PromotionUsecase
	favoriteUC  *FavoriteUsecase
	userUC      *UserUsecase
}

func newFixtures() *fixtures {
	log := logger.NewNop()
	f := &fixtures{
		ads:     memory.NewAdRepository(),
		reports: memory.NewReportRepository(),
		users:   memory.NewUserRepository(),
		mailer:  &recordingMailer{},
	}
	f.adUC = NewAdUsecase(f.ads, nil, nopPublisher{}, log)
	f.ratingUC = NewRatingUsecase(f.ads, nil, nopPublisher{}, log)
	f.reportUC = NewReportUsecase(f.reports, f.ads, f.users, nopPublisher{}, f.mailer, log)
	f.promotionUC = NewPromotionUsecase(f.ads, nil, nopPublisher{}, log)
	f.favoriteUC = NewFavoriteUsecase(f.users, f.ads, nopPublisher{}, log)
	f.userUC = NewUserUsecase(f.users, nopPublisher{}, log)
	return f
}

func (f *fixtures) seedUser(id, name, email string, role domain.Role) domain.Principal {
	f.users.Seed(&domain.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      role,
		Status:    domain.UserStatusActive,
		CreatedAt: time.Now().UTC(),
	})
	return domain.Principal{UserID: id, Role: role}
}

func (f *fixtures) seedAd(authorID, title, price string) *domain.Ad {
	ad := &domain.Ad{
		Title:          title,
		Price:          price,
		AuthorID:       authorID,
		Status:         domain.AdStatusActive,
		AvailableUntil: time.Now().UTC().Add(30 * 24 * time.Hour),
		CreatedAt:      time.Now().UTC(),
	}
	if err := f.ads.Create(context.Background(), ad); err != nil {
		panic(err)
	}
	return ad
}
