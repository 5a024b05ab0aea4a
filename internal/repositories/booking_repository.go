package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kidsbook_backend/internal/models"
)

var ErrBookingNotFound = errors.New("booking not found")

// BookingListFilter - фильтры платформенного списка бронирований (админка)
type BookingListFilter struct {
	Status    models.BookingStatus
	SessionID string
}

type BookingRepository interface {
	Create(db *gorm.DB, booking *models.Booking) error
	FindByID(db *gorm.DB, id string) (*models.Booking, error)
	// FindOwnedForUpdate читает бронирование пользователя под блокировкой
	// строки, чтобы конкурирующие отмены сериализовались.
	FindOwnedForUpdate(db *gorm.DB, id, userID string) (*models.Booking, error)
	FindByUser(db *gorm.DB, userID string) ([]models.Booking, error)
	FindAll(db *gorm.DB, filter BookingListFilter) ([]models.Booking, error)
	ExistsBooked(db *gorm.DB, sessionID, childID string) (bool, error)
	MarkCancelled(db *gorm.DB, id string, at time.Time) error
	UpdateStatus(db *gorm.DB, id string, status models.BookingStatus) error
}

type BookingRepositoryImpl struct{}

func NewBookingRepository() BookingRepository {
	return &BookingRepositoryImpl{}
}

func (r *BookingRepositoryImpl) Create(db *gorm.DB, booking *models.Booking) error {
	return db.Create(booking).Error
}

func (r *BookingRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Booking, error) {
	var booking models.Booking
	err := db.Preload("Child").
		Preload("Session").
		Preload("Session.Activity").
		Preload("Session.Activity.Partner").
		First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepositoryImpl) FindOwnedForUpdate(db *gorm.DB, id, userID string) (*models.Booking, error) {
	var booking models.Booking
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := db.Where("user_id = ?", userID).
		Preload("Child").
		Preload("Session").
		Preload("Session.Activity").
		Preload("Session.Activity.Partner").
		Joins("JOIN sessions ON sessions.id = bookings.session_id").
		Order("sessions.start_date_time DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepositoryImpl) FindAll(db *gorm.DB, filter BookingListFilter) ([]models.Booking, error) {
	query := db.Model(&models.Booking{}).
		Preload("Child").
		Preload("Session").
		Preload("Session.Activity").
		Preload("Session.Activity.Partner")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}

	var bookings []models.Booking
	err := query.Order("created_at DESC").Find(&bookings).Error
	return bookings, err
}

// ExistsBooked проверяет активное бронирование пары (сессия, ребенок).
// Как и CountBooked, достоверен только под блокировкой строки сессии.
func (r *BookingRepositoryImpl) ExistsBooked(db *gorm.DB, sessionID, childID string) (bool, error) {
	var count int64
	err := db.Model(&models.Booking{}).
		Where("session_id = ? AND child_id = ? AND status = ?",
			sessionID, childID, models.BookingStatusBooked).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BookingRepositoryImpl) MarkCancelled(db *gorm.DB, id string, at time.Time) error {
	return db.Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.BookingStatusCancelled,
			"cancelled_at": at,
		}).Error
}

func (r *BookingRepositoryImpl) UpdateStatus(db *gorm.DB, id string, status models.BookingStatus) error {
	result := db.Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}
