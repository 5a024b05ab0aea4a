package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kidsbook_backend/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(db *gorm.DB, session *models.Session) error
	FindByID(db *gorm.DB, id string) (*models.Session, error)
	// FindByIDForUpdate читает сессию под блокировкой SELECT ... FOR UPDATE.
	// Блокировка строки сессии сериализует конкурентные проверки вместимости.
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Session, error)
	FindAll(db *gorm.DB) ([]models.Session, error)
	CountBooked(db *gorm.DB, sessionID string) (int64, error)
	Delete(db *gorm.DB, id string) error
}

type SessionRepositoryImpl struct{}

func NewSessionRepository() SessionRepository {
	return &SessionRepositoryImpl{}
}

func (r *SessionRepositoryImpl) Create(db *gorm.DB, session *models.Session) error {
	return db.Create(session).Error
}

func (r *SessionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Session, error) {
	var session models.Session
	err := db.Preload("Activity").Preload("Activity.Partner").First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Session, error) {
	var session models.Session
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepositoryImpl) FindAll(db *gorm.DB) ([]models.Session, error) {
	var sessions []models.Session
	err := db.Preload("Activity").Preload("Activity.Partner").
		Order("start_date_time ASC").
		Find(&sessions).Error
	return sessions, err
}

// CountBooked считает активные бронирования сессии. Корректен только
// внутри транзакции, удерживающей блокировку строки сессии.
func (r *SessionRepositoryImpl) CountBooked(db *gorm.DB, sessionID string) (int64, error) {
	var count int64
	err := db.Model(&models.Booking{}).
		Where("session_id = ? AND status = ?", sessionID, models.BookingStatusBooked).
		Count(&count).Error
	return count, err
}

func (r *SessionRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Session{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
