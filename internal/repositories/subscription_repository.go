package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kidsbook_backend/internal/models"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrUsageNotFound        = errors.New("usage period not found")
)

type SubscriptionRepository interface {
	// Plan operations
	CreatePlan(db *gorm.DB, plan *models.Plan) error
	FindActivePlans(db *gorm.DB) ([]models.Plan, error)
	FindPlanByID(db *gorm.DB, id string) (*models.Plan, error)
	FindCheapestActivePlan(db *gorm.DB) (*models.Plan, error)

	// Subscription operations
	CreateSubscription(db *gorm.DB, sub *models.Subscription) error
	FindActiveByUser(db *gorm.DB, userID string) (*models.Subscription, error)
	// FindActiveByUserForUpdate блокирует строку подписки на время транзакции.
	// Блокировка сериализует проверку и списание кредитов между
	// конкурентными бронированиями одного родителя.
	FindActiveByUserForUpdate(db *gorm.DB, userID string) (*models.Subscription, error)
	FindByStripeSubscriptionID(db *gorm.DB, stripeSubID string) (*models.Subscription, error)
	UpsertFromBilling(db *gorm.DB, sub *models.Subscription) error
	UpdateBillingState(db *gorm.DB, stripeSubID string, status models.SubscriptionStatus, periodStart, periodEnd *time.Time) error
	MarkLapsed(db *gorm.DB, now time.Time) (int64, error)

	// Usage ledger operations
	FindUsage(db *gorm.DB, subscriptionID string, periodStart time.Time) (*models.UsagePeriod, error)
	ConsumeCredit(db *gorm.DB, sub *models.Subscription) error
	RestoreCredit(db *gorm.DB, sub *models.Subscription) error
}

type SubscriptionRepositoryImpl struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &SubscriptionRepositoryImpl{}
}

// --- Plans ---

func (r *SubscriptionRepositoryImpl) CreatePlan(db *gorm.DB, plan *models.Plan) error {
	return db.Create(plan).Error
}

func (r *SubscriptionRepositoryImpl) FindActivePlans(db *gorm.DB) ([]models.Plan, error) {
	var plans []models.Plan
	err := db.Where("is_active = ?", true).Order("price_cents ASC").Find(&plans).Error
	return plans, err
}

func (r *SubscriptionRepositoryImpl) FindPlanByID(db *gorm.DB, id string) (*models.Plan, error) {
	var plan models.Plan
	if err := db.First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionRepositoryImpl) FindCheapestActivePlan(db *gorm.DB) (*models.Plan, error) {
	var plan models.Plan
	err := db.Where("is_active = ?", true).Order("price_cents ASC").First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// --- Subscriptions ---

func (r *SubscriptionRepositoryImpl) CreateSubscription(db *gorm.DB, sub *models.Subscription) error {
	return db.Create(sub).Error
}

func (r *SubscriptionRepositoryImpl) FindActiveByUser(db *gorm.DB, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindActiveByUserForUpdate(db *gorm.DB, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	// FOR UPDATE нельзя совмещать с Preload (отдельный запрос), поэтому
	// план догружается вторым чтением уже под блокировкой.
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if err := db.First(&sub.Plan, "id = ?", sub.PlanID).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindByStripeSubscriptionID(db *gorm.DB, stripeSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Where("stripe_subscription_id = ?", stripeSubID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// UpsertFromBilling создает либо обновляет подписку по user_id.
// Вызывается только биллингом (webhook): ядро бронирований подписки не пишет.
func (r *SubscriptionRepositoryImpl) UpsertFromBilling(db *gorm.DB, sub *models.Subscription) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id", "status", "current_period_start", "current_period_end",
			"stripe_customer_id", "stripe_subscription_id", "updated_at",
		}),
	}).Create(sub).Error
}

func (r *SubscriptionRepositoryImpl) UpdateBillingState(db *gorm.DB, stripeSubID string, status models.SubscriptionStatus, periodStart, periodEnd *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if periodStart != nil {
		updates["current_period_start"] = *periodStart
	}
	if periodEnd != nil {
		updates["current_period_end"] = *periodEnd
	}
	if status == models.SubscriptionStatusCancelled {
		updates["cancelled_at"] = time.Now()
	}

	return db.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubID).
		Updates(updates).Error
}

// MarkLapsed переводит подписки с истекшим периодом в PAST_DUE.
// Подстраховка для инсталляций без Stripe webhook.
func (r *SubscriptionRepositoryImpl) MarkLapsed(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Subscription{}).
		Where("status = ? AND current_period_end < ?", models.SubscriptionStatusActive, now).
		Update("status", models.SubscriptionStatusPastDue)
	return result.RowsAffected, result.Error
}

// --- Usage ledger ---

func (r *SubscriptionRepositoryImpl) FindUsage(db *gorm.DB, subscriptionID string, periodStart time.Time) (*models.UsagePeriod, error) {
	var usage models.UsagePeriod
	err := db.Where("subscription_id = ? AND period_start = ?", subscriptionID, periodStart).
		First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsageNotFound
		}
		return nil, err
	}
	return &usage, nil
}

// ConsumeCredit атомарно списывает один кредит текущего периода подписки:
// upsert по составному ключу (subscription_id, period_start) со счетчиком +1.
// Вызывающий обязан удерживать блокировку строки подписки.
func (r *SubscriptionRepositoryImpl) ConsumeCredit(db *gorm.DB, sub *models.Subscription) error {
	usage := &models.UsagePeriod{
		SubscriptionID: sub.ID,
		PeriodStart:    sub.CurrentPeriodStart,
		PeriodEnd:      sub.CurrentPeriodEnd,
		UsedCredits:    1,
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subscription_id"}, {Name: "period_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"used_credits": gorm.Expr("usage_periods.used_credits + 1"),
		}),
	}).Create(usage).Error
}

// RestoreCredit возвращает один кредит текущего периода, не опускаясь ниже нуля.
func (r *SubscriptionRepositoryImpl) RestoreCredit(db *gorm.DB, sub *models.Subscription) error {
	return db.Model(&models.UsagePeriod{}).
		Where("subscription_id = ? AND period_start = ? AND used_credits > 0",
			sub.ID, sub.CurrentPeriodStart).
		Update("used_credits", gorm.Expr("used_credits - 1")).Error
}
