package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"kidsbook_backend/internal/models"
)

var (
	ErrPartnerNotFound  = errors.New("partner not found")
	ErrActivityNotFound = errors.New("activity not found")
)

// ActivityFilter - параметры каталога занятий
type ActivityFilter struct {
	Category string
	Search   string
	ChildAge *int
	Limit    int
}

type CatalogRepository interface {
	// Partners
	CreatePartner(db *gorm.DB, partner *models.Partner) error
	FindPartners(db *gorm.DB) ([]models.Partner, error)
	FindPartnerByID(db *gorm.DB, id string) (*models.Partner, error)
	UpdatePartner(db *gorm.DB, partner *models.Partner) error
	DeletePartner(db *gorm.DB, id string) error

	// Activities
	CreateActivity(db *gorm.DB, activity *models.Activity) error
	FindActivities(db *gorm.DB, filter ActivityFilter, now time.Time) ([]models.Activity, error)
	FindActivityByID(db *gorm.DB, id string, now time.Time) (*models.Activity, error)
	UpdateActivity(db *gorm.DB, activity *models.Activity) error
	DeleteActivity(db *gorm.DB, id string) error
}

type CatalogRepositoryImpl struct{}

func NewCatalogRepository() CatalogRepository {
	return &CatalogRepositoryImpl{}
}

// --- Partners ---

func (r *CatalogRepositoryImpl) CreatePartner(db *gorm.DB, partner *models.Partner) error {
	return db.Create(partner).Error
}

func (r *CatalogRepositoryImpl) FindPartners(db *gorm.DB) ([]models.Partner, error) {
	var partners []models.Partner
	err := db.Order("name ASC").Find(&partners).Error
	return partners, err
}

func (r *CatalogRepositoryImpl) FindPartnerByID(db *gorm.DB, id string) (*models.Partner, error) {
	var partner models.Partner
	if err := db.First(&partner, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartnerNotFound
		}
		return nil, err
	}
	return &partner, nil
}

func (r *CatalogRepositoryImpl) UpdatePartner(db *gorm.DB, partner *models.Partner) error {
	return db.Save(partner).Error
}

func (r *CatalogRepositoryImpl) DeletePartner(db *gorm.DB, id string) error {
	result := db.Delete(&models.Partner{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPartnerNotFound
	}
	return nil
}

// --- Activities ---

func (r *CatalogRepositoryImpl) CreateActivity(db *gorm.DB, activity *models.Activity) error {
	return db.Create(activity).Error
}

func (r *CatalogRepositoryImpl) FindActivities(db *gorm.DB, filter ActivityFilter, now time.Time) ([]models.Activity, error) {
	query := db.Model(&models.Activity{}).
		Preload("Partner").
		Preload("Sessions", func(tx *gorm.DB) *gorm.DB {
			// Только будущие сессии, ближайшая первой
			return tx.Where("start_date_time > ?", now).Order("start_date_time ASC")
		})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	if filter.ChildAge != nil {
		query = query.Where("age_min <= ? AND age_max >= ?", *filter.ChildAge, *filter.ChildAge)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var activities []models.Activity
	err := query.Order("created_at DESC").Limit(limit).Find(&activities).Error
	return activities, err
}

func (r *CatalogRepositoryImpl) FindActivityByID(db *gorm.DB, id string, now time.Time) (*models.Activity, error) {
	var activity models.Activity
	err := db.Preload("Partner").
		Preload("Sessions", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("start_date_time > ?", now).Order("start_date_time ASC")
		}).
		First(&activity, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return &activity, nil
}

func (r *CatalogRepositoryImpl) UpdateActivity(db *gorm.DB, activity *models.Activity) error {
	return db.Save(activity).Error
}

func (r *CatalogRepositoryImpl) DeleteActivity(db *gorm.DB, id string) error {
	result := db.Delete(&models.Activity{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrActivityNotFound
	}
	return nil
}
