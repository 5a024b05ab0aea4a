package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kidsbook_backend/internal/models"
	"kidsbook_backend/test/helpers"
)

// TestSignupFlow - регистрация создает родителя, ребенка и активную
// подписку, а затем пускает в систему по выданному токену
func TestSignupFlow(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	plan := helpers.CreateTestPlan(t, tx, 4)
	email := fmt.Sprintf("signup_%d@test.com", time.Now().UnixNano())

	signupBody := map[string]interface{}{
		"email":    email,
		"password": "super_password123",
		"name":     "Emma Smith",
		"city":     "Hamburg",
		"planId":   plan.ID,
		"child": map[string]interface{}{
			"name":      "Alex",
			"birthYear": 2018,
			"interests": []string{"SPORTS", "MUSIC"},
		},
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/signup", "", signupBody)
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var authResponse struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &authResponse))
	assert.NotEmpty(t, authResponse.Token)
	assert.Equal(t, email, authResponse.User.Email)

	// Ребенок и подписка созданы той же транзакцией
	var children []models.Child
	assert.NoError(t, tx.Where("user_id = ?", authResponse.User.ID).Find(&children).Error)
	assert.Len(t, children, 1)
	assert.Equal(t, "Alex", children[0].Name)

	var sub models.Subscription
	assert.NoError(t, tx.Where("user_id = ?", authResponse.User.ID).First(&sub).Error)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, plan.ID, sub.PlanID)

	// Токен работает
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/children", authResponse.Token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

// TestSignup_DuplicateEmail - повторная регистрация на тот же email (400)
func TestSignup_DuplicateEmail(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	helpers.CreateTestPlan(t, tx, 4)
	email := fmt.Sprintf("dup_%d@test.com", time.Now().UnixNano())

	signupBody := map[string]interface{}{
		"email":    email,
		"password": "super_password123",
		"name":     "Emma Smith",
		"city":     "Hamburg",
		"child": map[string]interface{}{
			"name":      "Alex",
			"birthYear": 2018,
		},
	}

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/signup", "", signupBody)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/signup", "", signupBody)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "already")
}

// TestLogin_WrongPassword - неверный пароль (401)
func TestLogin_WrongPassword(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("wrongpass_%d@test.com", time.Now().UnixNano())
	helpers.CreateAndLoginUser(t, ts, tx, "Test Parent", email, "password123", models.UserRoleParent)

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, bodyStr, "Invalid email or password")
}

// TestProtectedRoute_InvalidToken - мусорный токен (401)
func TestProtectedRoute_InvalidToken(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	res, _ := ts.SendRequest(t, http.MethodGet, "/api/v1/bookings", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

// TestAdminRoute_ForbiddenForParent - родителю закрыта админка (403)
func TestAdminRoute_ForbiddenForParent(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)

	res, _ := ts.SendRequest(t, http.MethodGet, "/api/v1/admin/bookings", parent.Token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
