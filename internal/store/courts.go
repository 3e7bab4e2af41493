package store

import (
	"context"

	"github.com/trentd187/pickup-run/internal/geo"
	"github.com/trentd187/pickup-run/internal/models"
	"gorm.io/gorm"
)

// CourtInput is what a user supplies when adding a court.
type CourtInput struct {
	Name      string
	Address   string
	Lat       float64
	Lng       float64
	CreatedBy uint
}

// CreateCourt validates the coordinates and inserts the court owned by in.CreatedBy.
func (s *Store) CreateCourt(ctx context.Context, in CourtInput) (*models.Court, error) {
	if !geo.ValidCoordinates(in.Lat, in.Lng) {
		return nil, ErrInvalidCoordinates
	}

	court := models.Court{
		Name:      in.Name,
		Address:   in.Address,
		Lat:       in.Lat,
		Lng:       in.Lng,
		CreatedBy: in.CreatedBy,
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", in.CreatedBy).Take(&models.User{}).Error; err != nil {
			return notFound("user", in.CreatedBy, err)
		}
		return tx.Create(&court).Error
	})
	if err != nil {
		return nil, err
	}
	return &court, nil
}

// GetCourt looks a court up by id.
func (s *Store) GetCourt(ctx context.Context, id uint) (*models.Court, error) {
	var court models.Court
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&court).Error; err != nil {
		return nil, notFound("court", id, err)
	}
	return &court, nil
}

// ListCourts returns every court ordered by name.
func (s *Store) ListCourts(ctx context.Context) ([]models.Court, error) {
	courts := []models.Court{}
	if err := s.db.WithContext(ctx).Order("name, id").Find(&courts).Error; err != nil {
		return nil, translate(err)
	}
	return courts, nil
}
