package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kidsbook_backend/internal/models"
	"kidsbook_backend/test/helpers"
)

// TestAdminCatalogFlow - админ собирает каталог: партнер -> занятие -> сессия
func TestAdminCatalogFlow(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/partners", adminToken, map[string]interface{}{
		"name": "HSV Fußballschule",
		"city": "Hamburg",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var partner struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &partner))

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/activities", adminToken, map[string]interface{}{
		"partnerId": partner.ID,
		"title":     "Fußball für Kinder",
		"category":  "SPORTS",
		"ageMin":    5,
		"ageMax":    10,
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var activity struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &activity))

	start := time.Now().Add(72 * time.Hour).UTC()
	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/sessions", adminToken, map[string]interface{}{
		"activityId":    activity.ID,
		"startDateTime": start.Format(time.RFC3339),
		"endDateTime":   start.Add(time.Hour).Format(time.RFC3339),
		"capacity":      8,
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	res, bodyStr = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/sessions", adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, "Fußball für Kinder")
	assert.Contains(t, bodyStr, `"bookedCount":0`)
}

// TestAdminCreateSession_InvalidRange - конец сессии раньше начала (400)
func TestAdminCreateSession_InvalidRange(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	start := time.Now().Add(72 * time.Hour).UTC()
	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/sessions", adminToken, map[string]interface{}{
		"activityId":    session.ActivityID,
		"startDateTime": start.Format(time.RFC3339),
		"endDateTime":   start.Add(-time.Hour).Format(time.RFC3339),
		"capacity":      8,
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

// TestAdminBookingStatus - BOOKED -> ATTENDED, повторный переход запрещен
func TestAdminBookingStatus(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   parent.Child.ID,
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var created struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &created))

	res, bodyStr = ts.SendRequest(t, http.MethodPatch, "/api/v1/admin/bookings/"+created.ID+"/status", adminToken, map[string]interface{}{
		"status": "ATTENDED",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var booking models.Booking
	assert.NoError(t, tx.First(&booking, "id = ?", created.ID).Error)
	assert.Equal(t, models.BookingStatusAttended, booking.Status)

	// Из конечного статуса переходов нет
	res, bodyStr = ts.SendRequest(t, http.MethodPatch, "/api/v1/admin/bookings/"+created.ID+"/status", adminToken, map[string]interface{}{
		"status": "NO_SHOW",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "Booking is not active")

	// Отмена посещенного занятия тоже запрещена
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", parent.Token, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

// TestAdminBookingStatus_InvalidValue - CANCELLED через админский
// переход не проходит валидацию (400)
func TestAdminBookingStatus_InvalidValue(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)

	res, _ := ts.SendRequest(t, http.MethodPatch, "/api/v1/admin/bookings/00000000-0000-0000-0000-000000000000/status", adminToken, map[string]interface{}{
		"status": "CANCELLED",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

// TestAdminListBookings_Filters - платформенный список фильтруется
// по статусу и сессии
func TestAdminListBookings_Filters(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	first := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))
	second := helpers.CreateTestSession(t, tx, 10, time.Now().Add(96*time.Hour))

	for _, s := range []string{first.ID, second.ID} {
		res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
			"sessionId": s,
			"childId":   parent.Child.ID,
		})
		assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)
	}

	res, bodyStr := ts.SendRequest(t, http.MethodGet, "/api/v1/admin/bookings?sessionId="+first.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var bookings []map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &bookings))
	assert.Len(t, bookings, 1)

	res, bodyStr = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/bookings?status=BOOKED", adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &bookings))
	assert.Len(t, bookings, 2)
}
