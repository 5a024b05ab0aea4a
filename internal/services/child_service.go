package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kidsbook_backend/internal/models"
	"kidsbook_backend/internal/repositories"
	"kidsbook_backend/internal/services/dto"
	"kidsbook_backend/pkg/apperrors"
)

type ChildService struct {
	childRepo repositories.ChildRepository
}

func NewChildService(childRepo repositories.ChildRepository) *ChildService {
	return &ChildService{childRepo: childRepo}
}

func (s *ChildService) GetChildren(db *gorm.DB, userID string) ([]models.Child, error) {
	return s.childRepo.FindByUser(db, userID)
}

func (s *ChildService) CreateChild(db *gorm.DB, userID string, req *dto.CreateChildRequest) (*models.Child, error) {
	interestsJSON, err := json.Marshal(req.Interests)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interests: %w", err)
	}

	child := &models.Child{
		UserID:    userID,
		Name:      req.Name,
		BirthDate: time.Date(req.BirthYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		Interests: datatypes.JSON(interestsJSON),
	}

	if err := s.childRepo.Create(db, child); err != nil {
		return nil, err
	}
	return child, nil
}

func (s *ChildService) UpdateChild(db *gorm.DB, userID, childID string, req *dto.UpdateChildRequest) (*models.Child, error) {
	child, err := s.childRepo.FindOwned(db, childID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrChildNotFound) {
			return nil, apperrors.ErrChildNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		child.Name = *req.Name
	}
	if req.Interests != nil {
		interestsJSON, err := json.Marshal(*req.Interests)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interests: %w", err)
		}
		child.Interests = datatypes.JSON(interestsJSON)
	}

	if err := s.childRepo.Update(db, child); err != nil {
		return nil, err
	}
	return child, nil
}

func (s *ChildService) DeleteChild(db *gorm.DB, userID, childID string) error {
	err := s.childRepo.Delete(db, childID, userID)
	if errors.Is(err, repositories.ErrChildNotFound) {
		return apperrors.ErrChildNotFound
	}
	return err
}
