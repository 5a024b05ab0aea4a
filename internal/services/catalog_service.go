package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"kidsbook_backend/internal/models"
	"kidsbook_backend/internal/repositories"
	"kidsbook_backend/internal/services/dto"
	"kidsbook_backend/pkg/apperrors"
)

// CatalogService - витрина занятий для родителей и CRUD каталога для админки
type CatalogService struct {
	catalogRepo repositories.CatalogRepository
	sessionRepo repositories.SessionRepository
	childRepo   repositories.ChildRepository
	clock       Clock
}

func NewCatalogService(
	catalogRepo repositories.CatalogRepository,
	sessionRepo repositories.SessionRepository,
	childRepo repositories.ChildRepository,
	clock Clock,
) *CatalogService {
	if clock == nil {
		clock = time.Now
	}
	return &CatalogService{
		catalogRepo: catalogRepo,
		sessionRepo: sessionRepo,
		childRepo:   childRepo,
		clock:       clock,
	}
}

// ListActivities возвращает занятия по фильтрам каталога.
// Если указан childId и ребенок принадлежит пользователю, добавляется
// фильтр по возрасту; чужой childId молча игнорируется, как и в витрине.
func (s *CatalogService) ListActivities(db *gorm.DB, userID string, query *dto.ActivityListQuery) ([]models.Activity, error) {
	filter := repositories.ActivityFilter{
		Category: query.Category,
		Search:   query.Search,
		Limit:    query.Limit,
	}

	if query.ChildID != "" && userID != "" {
		child, err := s.childRepo.FindOwned(db, query.ChildID, userID)
		if err == nil {
			age := child.Age(s.clock())
			filter.ChildAge = &age
		} else if !errors.Is(err, repositories.ErrChildNotFound) {
			return nil, err
		}
	}

	return s.catalogRepo.FindActivities(db, filter, s.clock())
}

func (s *CatalogService) GetActivity(db *gorm.DB, id string) (*models.Activity, error) {
	activity, err := s.catalogRepo.FindActivityByID(db, id, s.clock())
	if err != nil {
		if errors.Is(err, repositories.ErrActivityNotFound) {
			return nil, apperrors.ErrActivityNotFound
		}
		return nil, err
	}
	return activity, nil
}

// --- Admin: partners ---

func (s *CatalogService) ListPartners(db *gorm.DB) ([]models.Partner, error) {
	return s.catalogRepo.FindPartners(db)
}

func (s *CatalogService) CreatePartner(db *gorm.DB, req *dto.CreatePartnerRequest) (*models.Partner, error) {
	partner := &models.Partner{
		Name:         req.Name,
		Description:  req.Description,
		City:         req.City,
		ContactEmail: req.ContactEmail,
	}
	if err := s.catalogRepo.CreatePartner(db, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *CatalogService) DeletePartner(db *gorm.DB, id string) error {
	err := s.catalogRepo.DeletePartner(db, id)
	if errors.Is(err, repositories.ErrPartnerNotFound) {
		return apperrors.ErrPartnerNotFound
	}
	return err
}

// --- Admin: activities ---

func (s *CatalogService) CreateActivity(db *gorm.DB, req *dto.CreateActivityRequest) (*models.Activity, error) {
	if req.AgeMax < req.AgeMin {
		return nil, apperrors.NewBadRequestError("ageMax cannot be less than ageMin")
	}

	if _, err := s.catalogRepo.FindPartnerByID(db, req.PartnerID); err != nil {
		if errors.Is(err, repositories.ErrPartnerNotFound) {
			return nil, apperrors.ErrPartnerNotFound
		}
		return nil, err
	}

	activity := &models.Activity{
		PartnerID:   req.PartnerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    models.ActivityCategory(req.Category),
		AgeMin:      req.AgeMin,
		AgeMax:      req.AgeMax,
		Location:    req.Location,
	}
	if err := s.catalogRepo.CreateActivity(db, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *CatalogService) DeleteActivity(db *gorm.DB, id string) error {
	err := s.catalogRepo.DeleteActivity(db, id)
	if errors.Is(err, repositories.ErrActivityNotFound) {
		return apperrors.ErrActivityNotFound
	}
	return err
}

// --- Admin: sessions ---

func (s *CatalogService) CreateSession(db *gorm.DB, req *dto.CreateSessionRequest) (*models.Session, error) {
	if !req.EndDateTime.After(req.StartDateTime) {
		return nil, apperrors.NewBadRequestError("endDateTime must be after startDateTime")
	}

	if _, err := s.catalogRepo.FindActivityByID(db, req.ActivityID, s.clock()); err != nil {
		if errors.Is(err, repositories.ErrActivityNotFound) {
			return nil, apperrors.ErrActivityNotFound
		}
		return nil, err
	}

	session := &models.Session{
		ActivityID:    req.ActivityID,
		StartDateTime: req.StartDateTime,
		EndDateTime:   req.EndDateTime,
		Capacity:      req.Capacity,
	}
	if err := s.sessionRepo.Create(db, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions возвращает все сессии с числом активных бронирований
func (s *CatalogService) ListSessions(db *gorm.DB) ([]dto.SessionWithCount, error) {
	sessions, err := s.sessionRepo.FindAll(db)
	if err != nil {
		return nil, err
	}

	result := make([]dto.SessionWithCount, 0, len(sessions))
	for i := range sessions {
		count, err := s.sessionRepo.CountBooked(db, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		result = append(result, dto.SessionWithCount{
			ID:            sessions[i].ID,
			ActivityTitle: sessions[i].Activity.Title,
			PartnerName:   sessions[i].Activity.Partner.Name,
			StartDateTime: sessions[i].StartDateTime,
			EndDateTime:   sessions[i].EndDateTime,
			Capacity:      sessions[i].Capacity,
			BookedCount:   count,
		})
	}
	return result, nil
}

func (s *CatalogService) DeleteSession(db *gorm.DB, id string) error {
	err := s.sessionRepo.Delete(db, id)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return apperrors.ErrSessionNotFound
	}
	return err
}
