package mongodb

import (
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ratingDocument struct {
	UserID    string    `bson:"user_id"`
	Rating    int32     `bson:"rating"`
	Comment   string    `bson:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type adDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Category       string             `bson:"category,omitempty"`
	Description    string             `bson:"description,omitempty"`
	Price          string             `bson:"price"`
	Location       string             `bson:"location,omitempty"`
	AvailableUntil time.Time          `bson:"available_until"`
	AuthorID       string             `bson:"author_id"`
	Status         string             `bson:"status"`
	CreatedAt      time.Time          `bson:"created_at"`

	Ratings       []ratingDocument `bson:"ratings"`
	AverageRating float64          `bson:"average_rating"`
	RatingCount   int32            `bson:"rating_count"`

	PromotionActive    bool       `bson:"promotion_active"`
	PromotionLabel     string     `bson:"promotion_label,omitempty"`
	PromotionExpiresAt *time.Time `bson:"promotion_expires_at,omitempty"`
	// original_price is absent until the first promotion activation;
	// the snapshot pipeline relies on that absence.
	OriginalPrice string `bson:"original_price,omitempty"`
}

func fromDomainAd(ad *domain.Ad) *adDocument {
	doc := &adDocument{
		ID:                 ad.ID,
		Title:              ad.Title,
		Category:           ad.Category,
		Description:        ad.Description,
		Price:              ad.Price,
		Location:           ad.Location,
		AvailableUntil:     ad.AvailableUntil,
		AuthorID:           ad.AuthorID,
		Status:             string(ad.Status),
		CreatedAt:          ad.CreatedAt,
		Ratings:            make([]ratingDocument, len(ad.Ratings)),
		AverageRating:      ad.AverageRating,
		RatingCount:        ad.RatingCount,
		PromotionActive:    ad.PromotionActive,
		PromotionLabel:     ad.PromotionLabel,
		PromotionExpiresAt: ad.PromotionExpiresAt,
		OriginalPrice:      ad.OriginalPrice,
	}
	for i, r := range ad.Ratings {
		doc.Ratings[i] = ratingDocument{
			UserID:    r.UserID,
			Rating:    r.Value,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	return doc
}

func (doc *adDocument) toDomainAd() *domain.Ad {
	ad := &domain.Ad{
		ID:                 doc.ID,
		Title:              doc.Title,
		Category:           doc.Category,
		Description:        doc.Description,
		Price:              doc.Price,
		Location:           doc.Location,
		AvailableUntil:     doc.AvailableUntil,
		AuthorID:           doc.AuthorID,
		Status:             domain.AdStatus(doc.Status),
		CreatedAt:          doc.CreatedAt,
		Ratings:            make([]domain.Rating, len(doc.Ratings)),
		AverageRating:      doc.AverageRating,
		RatingCount:        doc.RatingCount,
		PromotionActive:    doc.PromotionActive,
		PromotionLabel:     doc.PromotionLabel,
		PromotionExpiresAt: doc.PromotionExpiresAt,
		OriginalPrice:      doc.OriginalPrice,
	}
	for i, r := range doc.Ratings {
		ad.Ratings[i] = domain.Rating{
			UserID:    r.UserID,
			Value:     r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	return ad
}

type reportDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	AdID          string             `bson:"ad_id"`
	AdTitle       string             `bson:"ad_title"`
	ReporterID    string             `bson:"reporter_id"`
	ReporterName  string             `bson:"reporter_name"`
	ReporterEmail string             `bson:"reporter_email"`
	Reason        string             `bson:"reason"`
	Description   string             `bson:"description,omitempty"`
	Status        string             `bson:"status"`
	// open mirrors Status for the partial unique index on
	// (ad_id, reporter_id); it is true for pending and in_review.
	Open       bool      `bson:"open"`
	AdminNotes string    `bson:"admin_notes,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func fromDomainReport(report *domain.Report) *reportDocument {
	return &reportDocument{
		ID:            report.ID,
		AdID:          report.AdID,
		AdTitle:       report.AdTitle,
		ReporterID:    report.ReporterID,
		ReporterName:  report.ReporterName,
		ReporterEmail: report.ReporterEmail,
		Reason:        report.Reason,
		Description:   report.Description,
		Status:        string(report.Status),
		Open:          report.Status.IsOpen(),
		AdminNotes:    report.AdminNotes,
		CreatedAt:     report.CreatedAt,
		UpdatedAt:     report.UpdatedAt,
	}
}

func (doc *reportDocument) toDomainReport() *domain.Report {
	return &domain.Report{
		ID:            doc.ID,
		AdID:          doc.AdID,
		AdTitle:       doc.AdTitle,
		ReporterID:    doc.ReporterID,
		ReporterName:  doc.ReporterName,
		ReporterEmail: doc.ReporterEmail,
		Reason:        doc.Reason,
		Description:   doc.Description,
		Status:        domain.ReportStatus(doc.Status),
		AdminNotes:    doc.AdminNotes,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Course    string    `bson:"course,omitempty"`
	Contact   string    `bson:"contact,omitempty"`
	Role      string    `bson:"role"`
	Status    string    `bson:"status"`
	Favorites []string  `bson:"favorites"`
	CreatedAt time.Time `bson:"created_at"`
}

func (doc *userDocument) toDomainUser() *domain.User {
	favorites := doc.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return &domain.User{
		ID:        doc.ID,
		Name:      doc.Name,
		Email:     doc.Email,
		Course:    doc.Course,
		Contact:   doc.Contact,
		Role:      domain.Role(doc.Role),
		Status:    domain.UserStatus(doc.Status),
		Favorites: favorites,
		CreatedAt: doc.CreatedAt,
	}
}
