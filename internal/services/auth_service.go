package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kidsbook_backend/internal/auth"
	"kidsbook_backend/internal/models"
	"kidsbook_backend/internal/repositories"
	"kidsbook_backend/internal/services/dto"
	"kidsbook_backend/pkg/apperrors"
)

type AuthService struct {
	userRepo         repositories.UserRepository
	childRepo        repositories.ChildRepository
	subscriptionRepo repositories.SubscriptionRepository
	clock            Clock
}

func NewAuthService(
	userRepo repositories.UserRepository,
	childRepo repositories.ChildRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	clock Clock,
) *AuthService {
	if clock == nil {
		clock = time.Now
	}
	return &AuthService{
		userRepo:         userRepo,
		childRepo:        childRepo,
		subscriptionRepo: subscriptionRepo,
		clock:            clock,
	}
}

// Signup создает родителя, первого ребенка и пробную подписку одной
// транзакцией. Первый месяц бесплатный: подписка сразу ACTIVE,
// период - месяц с момента регистрации.
func (s *AuthService) Signup(db *gorm.DB, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	exists, err := s.userRepo.EmailExists(db, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Выбранный план либо самый дешевый активный
	var plan *models.Plan
	if req.PlanID != "" {
		plan, err = s.subscriptionRepo.FindPlanByID(db, req.PlanID)
		if err != nil && !errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, err
		}
	}
	if plan == nil {
		plan, err = s.subscriptionRepo.FindCheapestActivePlan(db)
		if err != nil && !errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, err
		}
	}

	interestsJSON, err := json.Marshal(req.Child.Interests)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interests: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         models.UserRoleParent,
		City:         req.City,
	}

	now := s.clock()
	periodEnd := now.AddDate(0, 1, 0)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(tx, user); err != nil {
			return err
		}

		child := &models.Child{
			UserID:    user.ID,
			Name:      req.Child.Name,
			BirthDate: time.Date(req.Child.BirthYear, time.January, 1, 0, 0, 0, 0, time.UTC),
			Interests: datatypes.JSON(interestsJSON),
		}
		if err := s.childRepo.Create(tx, child); err != nil {
			return err
		}

		if plan != nil {
			sub := &models.Subscription{
				UserID:             user.ID,
				PlanID:             plan.ID,
				Status:             models.SubscriptionStatusActive,
				CurrentPeriodStart: now,
				CurrentPeriodEnd:   periodEnd,
			}
			if err := s.subscriptionRepo.CreateSubscription(tx, sub); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  userToResponse(user),
	}, nil
}

// Login проверяет учетные данные и выпускает JWT
func (s *AuthService) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  userToResponse(user),
	}, nil
}

func userToResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
		City:  u.City,
	}
}
