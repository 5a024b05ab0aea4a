package services

import (
	"errors"

	"gorm.io/gorm"

	"kidsbook_backend/internal/models"
	"kidsbook_backend/internal/repositories"
	"kidsbook_backend/internal/services/dto"
)

// defaultPlanCredits показывается не подписанным пользователям
// как лимит базового плана.
const defaultPlanCredits = 4

// SubscriptionService - чтение состояния подписки и кредитного леджера.
// Мутации подписок принадлежат биллингу (billing.StripeService) и регистрации.
type SubscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
}

func NewSubscriptionService(subscriptionRepo repositories.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{subscriptionRepo: subscriptionRepo}
}

func (s *SubscriptionService) GetPlans(db *gorm.DB) ([]models.Plan, error) {
	return s.subscriptionRepo.FindActivePlans(db)
}

// GetUsage возвращает счетчик кредитов текущего периода.
// Отсутствие строки usage трактуется как 0 использованных кредитов.
func (s *SubscriptionService) GetUsage(db *gorm.DB, userID string) (*dto.UsageResponse, error) {
	sub, err := s.subscriptionRepo.FindActiveByUser(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return &dto.UsageResponse{
				Used:            0,
				Total:           defaultPlanCredits,
				HasSubscription: false,
			}, nil
		}
		return nil, err
	}

	used := 0
	usage, err := s.subscriptionRepo.FindUsage(db, sub.ID, sub.CurrentPeriodStart)
	if err != nil && !errors.Is(err, repositories.ErrUsageNotFound) {
		return nil, err
	}
	if usage != nil {
		used = usage.UsedCredits
	}

	return &dto.UsageResponse{
		Used:            used,
		Total:           sub.Plan.CreditsPerPeriod,
		HasSubscription: true,
		PeriodStart:     &sub.CurrentPeriodStart,
		PeriodEnd:       &sub.CurrentPeriodEnd,
	}, nil
}
