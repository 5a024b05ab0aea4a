package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kidsbook_backend/internal/models"
)

// CreateUser создает пользователя, хешируя сырой пароль при необходимости
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) error {
	if user.PasswordHash != "" && !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("Не удалось хешировать пароль: %v", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if user.Role == "" {
		user.Role = models.UserRoleParent
	}

	result := db.Create(user)
	if result.Error != nil {
		t.Logf("ОШИБКА: не удалось создать пользователя %s: %v", user.Email, result.Error)
		return result.Error
	}

	return nil
}

// CreateAndLoginUser создает пользователя и логинит его через API
func CreateAndLoginUser(t *testing.T, ts *TestServer, tx *gorm.DB, name, email, password string, role models.UserRole) (string, *models.User) {
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password, // сырой пароль, захешируется в CreateUser
		Role:         role,
		City:         "Hamburg",
	}
	err := CreateUser(t, tx, user)
	assert.NoError(t, err, "Создание тестового пользователя не должно вызывать ошибку")

	loginBody := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", loginBody)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Логин должен быть успешным. Ответ: "+bodyStr)

	var loginResponse struct {
		Token string `json:"token"`
	}
	err = json.Unmarshal([]byte(bodyStr), &loginResponse)
	assert.NoError(t, err, "Не удалось распарсить JSON")
	assert.NotEmpty(t, loginResponse.Token, "Токен не должен быть пустым")

	return loginResponse.Token, user
}

// CreateTestPlan создает тариф с заданным лимитом кредитов
func CreateTestPlan(t *testing.T, tx *gorm.DB, credits int) *models.Plan {
	plan := &models.Plan{
		Code:             fmt.Sprintf("TEST_PLAN_%d_%d", credits, time.Now().UnixNano()),
		Name:             fmt.Sprintf("Test Plan (%d)", credits),
		PriceCents:       1900,
		Currency:         "EUR",
		CreditsPerPeriod: credits,
		Period:           models.PlanPeriodMonthly,
		IsActive:         true,
	}
	if err := tx.Create(plan).Error; err != nil {
		t.Fatalf("Не удалось создать тестовый план: %v", err)
	}
	return plan
}

// CreateTestSubscription создает активную подписку с текущим периодом
func CreateTestSubscription(t *testing.T, tx *gorm.DB, userID, planID string) *models.Subscription {
	now := time.Now().UTC()
	sub := &models.Subscription{
		UserID:             userID,
		PlanID:             planID,
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: now.Add(-24 * time.Hour),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}
	if err := tx.Create(sub).Error; err != nil {
		t.Fatalf("Не удалось создать тестовую подписку: %v", err)
	}
	return sub
}

// CreateTestChild создает ребенка заданного возраста
func CreateTestChild(t *testing.T, tx *gorm.DB, userID, name string, age int) *models.Child {
	child := &models.Child{
		UserID:    userID,
		Name:      name,
		BirthDate: time.Now().UTC().AddDate(-age, 0, -1),
		Interests: datatypes.JSON(`["SPORTS"]`),
	}
	if err := tx.Create(child).Error; err != nil {
		t.Fatalf("Не удалось создать тестового ребенка: %v", err)
	}
	return child
}

// ParentFixture - залогиненный родитель с ребенком и активной подпиской
type ParentFixture struct {
	Token        string
	User         *models.User
	Child        *models.Child
	Plan         *models.Plan
	Subscription *models.Subscription
}

// CreateParentWithSubscription собирает полный фикстурный набор родителя:
// пользователь, ребенок, план с заданным лимитом и активная подписка.
func CreateParentWithSubscription(t *testing.T, ts *TestServer, tx *gorm.DB, credits int) *ParentFixture {
	email := fmt.Sprintf("parent_%d@test.com", time.Now().UnixNano())
	token, user := CreateAndLoginUser(t, ts, tx, "Test Parent", email, "password123", models.UserRoleParent)

	child := CreateTestChild(t, tx, user.ID, "Alex", 7)
	plan := CreateTestPlan(t, tx, credits)
	sub := CreateTestSubscription(t, tx, user.ID, plan.ID)

	return &ParentFixture{
		Token:        token,
		User:         user,
		Child:        child,
		Plan:         plan,
		Subscription: sub,
	}
}

// CreateAndLoginAdmin создает администратора
func CreateAndLoginAdmin(t *testing.T, ts *TestServer, tx *gorm.DB) (string, *models.User) {
	email := fmt.Sprintf("admin_%d@test.com", time.Now().UnixNano())
	return CreateAndLoginUser(t, ts, tx, "Test Admin", email, "password123", models.UserRoleAdmin)
}

// CreateTestSession создает партнера, занятие и сессию одним вызовом
func CreateTestSession(t *testing.T, tx *gorm.DB, capacity int, start time.Time) *models.Session {
	partner := &models.Partner{
		Name: "Test Sports Club",
		City: "Hamburg",
	}
	if err := tx.Create(partner).Error; err != nil {
		t.Fatalf("Не удалось создать тестового партнера: %v", err)
	}

	activity := &models.Activity{
		PartnerID: partner.ID,
		Title:     "Kids Football",
		Category:  models.CategorySports,
		AgeMin:    4,
		AgeMax:    12,
		Location:  "Stadium 1",
	}
	if err := tx.Create(activity).Error; err != nil {
		t.Fatalf("Не удалось создать тестовое занятие: %v", err)
	}

	session := &models.Session{
		ActivityID:    activity.ID,
		StartDateTime: start,
		EndDateTime:   start.Add(1 * time.Hour),
		Capacity:      capacity,
	}
	if err := tx.Create(session).Error; err != nil {
		t.Fatalf("Не удалось создать тестовую сессию: %v", err)
	}

	return session
}

// BookedCount возвращает число активных бронирований сессии
func BookedCount(t *testing.T, tx *gorm.DB, sessionID string) int64 {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("session_id = ? AND status = ?", sessionID, models.BookingStatusBooked).
		Count(&count).Error
	if err != nil {
		t.Fatalf("Не удалось посчитать бронирования: %v", err)
	}
	return count
}

// UsedCredits возвращает расход кредитов подписки за ее текущий период
func UsedCredits(t *testing.T, tx *gorm.DB, sub *models.Subscription) int {
	var usage models.UsagePeriod
	err := tx.Where("subscription_id = ? AND period_start = ?", sub.ID, sub.CurrentPeriodStart).
		First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	if err != nil {
		t.Fatalf("Не удалось прочитать usage_periods: %v", err)
	}
	return usage.UsedCredits
}
