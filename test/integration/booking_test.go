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

// TestBookSession_Success - "золотой путь": бронирование создается,
// кредит списывается, счетчик сессии растет
func TestBookSession_Success(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	body := map[string]interface{}{
		"sessionId": session.ID,
		"childId":   parent.Child.ID,
	}
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, body)

	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, `"status":"BOOKED"`)
	assert.Contains(t, bodyStr, "Kids Football")
	assert.Contains(t, bodyStr, "Alex")

	assert.EqualValues(t, 1, helpers.BookedCount(t, tx, session.ID))
	assert.Equal(t, 1, helpers.UsedCredits(t, tx, parent.Subscription))
}

// TestBookSession_NoSubscription - без активной подписки бронирование
// запрещено (403)
func TestBookSession_NoSubscription(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("nosub_%d@test.com", time.Now().UnixNano())
	token, user := helpers.CreateAndLoginUser(t, ts, tx, "No Sub", email, "password123", models.UserRoleParent)
	child := helpers.CreateTestChild(t, tx, user.ID, "Mia", 6)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	body := map[string]interface{}{
		"sessionId": session.ID,
		"childId":   child.ID,
	}
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", token, body)

	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, bodyStr, "Active subscription required")
	assert.EqualValues(t, 0, helpers.BookedCount(t, tx, session.ID))
}

// TestBookSession_CreditLimitReached - исчерпанный лимит периода
// блокирует новые бронирования (403)
func TestBookSession_CreditLimitReached(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 1)
	first := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))
	second := helpers.CreateTestSession(t, tx, 10, time.Now().Add(96*time.Hour))

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": first.ID,
		"childId":   parent.Child.ID,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": second.ID,
		"childId":   parent.Child.ID,
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, bodyStr, "Monthly booking limit reached")

	// Счетчик не ушел дальше лимита
	assert.Equal(t, 1, helpers.UsedCredits(t, tx, parent.Subscription))
	assert.EqualValues(t, 0, helpers.BookedCount(t, tx, second.ID))
}

// TestBookSession_UnlimitedPlan - план с сентинельным лимитом
// не блокируется, расход при этом продолжает учитываться
func TestBookSession_UnlimitedPlan(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, models.UnlimitedCredits)

	for i := 0; i < 3; i++ {
		session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(time.Duration(72+i)*time.Hour))
		res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
			"sessionId": session.ID,
			"childId":   parent.Child.ID,
		})
		assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)
	}

	assert.Equal(t, 3, helpers.UsedCredits(t, tx, parent.Subscription))
}

// TestBookSession_SessionFull - вместимость сессии не превышается (400)
func TestBookSession_SessionFull(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	first := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	second := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 1, time.Now().Add(72*time.Hour))

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", first.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   first.Child.ID,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", second.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   second.Child.ID,
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "Session is full")

	// Проигравший не списал кредит
	assert.EqualValues(t, 1, helpers.BookedCount(t, tx, session.ID))
	assert.Equal(t, 0, helpers.UsedCredits(t, tx, second.Subscription))
}

// TestBookSession_DuplicateChild - второго активного бронирования
// одного ребенка на ту же сессию не бывает (400)
func TestBookSession_DuplicateChild(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	body := map[string]interface{}{
		"sessionId": session.ID,
		"childId":   parent.Child.ID,
	}
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, body)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, body)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "Already booked for this session")

	assert.EqualValues(t, 1, helpers.BookedCount(t, tx, session.ID))
	assert.Equal(t, 1, helpers.UsedCredits(t, tx, parent.Subscription))
}

// TestBookSession_ForeignChild - чужой ребенок неотличим
// от несуществующего (404)
func TestBookSession_ForeignChild(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	other := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   other.Child.ID,
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, bodyStr, "Child not found")
}

// TestBookSession_SessionNotFound - несуществующая сессия (404)
func TestBookSession_SessionNotFound(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": "00000000-0000-0000-0000-000000000000",
		"childId":   parent.Child.ID,
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, bodyStr, "Session not found")
}

// TestBookSession_Unauthenticated - без токена 401
func TestBookSession_Unauthenticated(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", "", map[string]interface{}{
		"sessionId": "00000000-0000-0000-0000-000000000000",
		"childId":   "00000000-0000-0000-0000-000000000000",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

// TestCancelBooking_RestoresCredit - отмена до дедлайна возвращает кредит
// и освобождает место
func TestCancelBooking_RestoresCredit(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   parent.Child.ID,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var created struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &created))

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", parent.Token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, `"success":true`)

	var booking models.Booking
	assert.NoError(t, tx.First(&booking, "id = ?", created.ID).Error)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)
	assert.NotNil(t, booking.CancelledAt)

	assert.EqualValues(t, 0, helpers.BookedCount(t, tx, session.ID))
	assert.Equal(t, 0, helpers.UsedCredits(t, tx, parent.Subscription))
}

// TestCancelBooking_WithinCutoff - менее чем за 24 часа отмена запрещена,
// бронирование и кредит не трогаются
func TestCancelBooking_WithinCutoff(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(12*time.Hour))

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   parent.Child.ID,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var created struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &created))

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", parent.Token, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "Cannot cancel within 24 hours")

	assert.EqualValues(t, 1, helpers.BookedCount(t, tx, session.ID))
	assert.Equal(t, 1, helpers.UsedCredits(t, tx, parent.Subscription))
}

// TestCancelBooking_AlreadyCancelled - повторная отмена не проходит
// и не возвращает кредит второй раз
func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   parent.Child.ID,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var created struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &created))

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", parent.Token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", parent.Token, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "Booking is not active")

	// Кредит вернулся ровно один раз, в ноль
	assert.Equal(t, 0, helpers.UsedCredits(t, tx, parent.Subscription))
}

// TestCancelBooking_NotOwn - чужое бронирование неотличимо
// от несуществующего (404)
func TestCancelBooking_NotOwn(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	owner := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	intruder := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", owner.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   owner.Child.ID,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var created struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &created))

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", intruder.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, bodyStr, "Booking not found")

	assert.EqualValues(t, 1, helpers.BookedCount(t, tx, session.ID))
}

// TestCancelBooking_MalformedID - кривой id тоже отвечает 404,
// как и несуществующий
func TestCancelBooking_MalformedID(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings/not-a-uuid/cancel", parent.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, bodyStr, "Booking not found")
}

// TestRebookAfterCancel - после отмены ребенок может забронировать
// ту же сессию снова
func TestRebookAfterCancel(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	body := map[string]interface{}{
		"sessionId": session.ID,
		"childId":   parent.Child.ID,
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, body)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var created struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &created))

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", parent.Token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, body)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	assert.EqualValues(t, 1, helpers.BookedCount(t, tx, session.ID))
	assert.Equal(t, 1, helpers.UsedCredits(t, tx, parent.Subscription))
}

// TestListBookings - родитель видит только свои бронирования
func TestListBookings(t *testing.T) {
	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	parent := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	other := helpers.CreateParentWithSubscription(t, ts, tx, 4)
	session := helpers.CreateTestSession(t, tx, 10, time.Now().Add(72*time.Hour))

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/bookings", parent.Token, map[string]interface{}{
		"sessionId": session.ID,
		"childId":   parent.Child.ID,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, bodyStr := ts.SendRequest(t, http.MethodGet, "/api/v1/bookings", parent.Token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var bookings []map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &bookings))
	assert.Len(t, bookings, 1)

	res, bodyStr = ts.SendRequest(t, http.MethodGet, "/api/v1/bookings", other.Token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NoError(t, json.Unmarshal([]byte(bodyStr), &bookings))
	assert.Len(t, bookings, 0)
}
