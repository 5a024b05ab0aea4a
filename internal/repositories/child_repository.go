package repositories

import (
	"errors"

	"gorm.io/gorm"

	"kidsbook_backend/internal/models"
)

type ChildRepository interface {
	Create(db *gorm.DB, child *models.Child) error
	FindByUser(db *gorm.DB, userID string) ([]models.Child, error)
	// FindOwned возвращает ребенка только если он принадлежит userID.
	// Чужой или несуществующий ребенок неразличимы для вызывающего (ErrChildNotFound).
	FindOwned(db *gorm.DB, childID, userID string) (*models.Child, error)
	Update(db *gorm.DB, child *models.Child) error
	Delete(db *gorm.DB, childID, userID string) error
}

type ChildRepositoryImpl struct{}

func NewChildRepository() ChildRepository {
	return &ChildRepositoryImpl{}
}

func (r *ChildRepositoryImpl) Create(db *gorm.DB, child *models.Child) error {
	return db.Create(child).Error
}

func (r *ChildRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Child, error) {
	var children []models.Child
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&children).Error
	return children, err
}

func (r *ChildRepositoryImpl) FindOwned(db *gorm.DB, childID, userID string) (*models.Child, error) {
	var child models.Child
	err := db.Where("id = ? AND user_id = ?", childID, userID).First(&child).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChildNotFound
		}
		return nil, err
	}
	return &child, nil
}

func (r *ChildRepositoryImpl) Update(db *gorm.DB, child *models.Child) error {
	return db.Save(child).Error
}

func (r *ChildRepositoryImpl) Delete(db *gorm.DB, childID, userID string) error {
	result := db.Where("id = ? AND user_id = ?", childID, userID).Delete(&models.Child{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChildNotFound
	}
	return nil
}
