package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"kidsbook_backend/internal/models"
	"kidsbook_backend/test/helpers"
)

// Конкурентные тесты ходят в пул соединений, а не в тестовую
// транзакцию: блокировки FOR UPDATE видны только между разными
// соединениями. Созданные строки подчищаются вручную через t.Cleanup.

// postBookingRaw отправляет бронирование без t.Fatal внутри,
// чтобы его можно было звать из горутин
func postBookingRaw(ts *helpers.TestServer, token, sessionID, childID string) (int, error) {
	payload, err := json.Marshal(map[string]string{
		"sessionId": sessionID,
		"childId":   childID,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/api/v1/bookings", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	return res.StatusCode, nil
}

func cleanupParentFixture(db *gorm.DB, f *helpers.ParentFixture) {
	db.Where("user_id = ?", f.User.ID).Delete(&models.Booking{})
	db.Where("subscription_id = ?", f.Subscription.ID).Delete(&models.UsagePeriod{})
	db.Delete(&models.Subscription{}, "id = ?", f.Subscription.ID)
	db.Delete(&models.Child{}, "id = ?", f.Child.ID)
	db.Delete(&models.Plan{}, "id = ?", f.Plan.ID)
	db.Delete(&models.User{}, "id = ?", f.User.ID)
}

func cleanupSessionFixture(db *gorm.DB, s *models.Session) {
	var activity models.Activity
	db.First(&activity, "id = ?", s.ActivityID)

	db.Where("session_id = ?", s.ID).Delete(&models.Booking{})
	db.Delete(&models.Session{}, "id = ?", s.ID)
	db.Delete(&models.Activity{}, "id = ?", s.ActivityID)
	if activity.PartnerID != "" {
		db.Delete(&models.Partner{}, "id = ?", activity.PartnerID)
	}
}

// TestConcurrentBooking_CapacityOne - три родителя одновременно бронируют
// сессию на одно место: проходит ровно один, вместимость не превышается
func TestConcurrentBooking_CapacityOne(t *testing.T) {
	ts := GetTestServer(t)
	db := ts.DB

	const parents = 3

	fixtures := make([]*helpers.ParentFixture, parents)
	for i := range fixtures {
		fixtures[i] = helpers.CreateParentWithSubscription(t, ts, db, 4)
	}
	session := helpers.CreateTestSession(t, db, 1, time.Now().Add(48*time.Hour))

	t.Cleanup(func() {
		cleanupSessionFixture(db, session)
		for _, f := range fixtures {
			cleanupParentFixture(db, f)
		}
	})

	statuses := make(chan int, parents)
	errs := make(chan error, parents)

	var start sync.WaitGroup
	start.Add(1)
	var done sync.WaitGroup
	for _, f := range fixtures {
		done.Add(1)
		go func(f *helpers.ParentFixture) {
			defer done.Done()
			start.Wait()
			code, err := postBookingRaw(ts, f.Token, session.ID, f.Child.ID)
			if err != nil {
				errs <- err
				return
			}
			statuses <- code
		}(f)
	}
	start.Done()
	done.Wait()
	close(statuses)
	close(errs)

	for err := range errs {
		t.Fatalf("Запрос бронирования не дошел до сервера: %v", err)
	}

	okCount, fullCount := 0, 0
	for code := range statuses {
		switch code {
		case http.StatusOK:
			okCount++
		case http.StatusBadRequest:
			fullCount++
		default:
			t.Errorf("Неожиданный статус конкурентного бронирования: %d", code)
		}
	}

	assert.Equal(t, 1, okCount, "место одно - выиграть должен ровно один")
	assert.Equal(t, parents-1, fullCount)
	assert.EqualValues(t, 1, helpers.BookedCount(t, db, session.ID))

	totalUsed := 0
	for _, f := range fixtures {
		totalUsed += helpers.UsedCredits(t, db, f.Subscription)
	}
	assert.Equal(t, 1, totalUsed, "кредит списывается только у победителя")
}

// TestConcurrentBooking_SingleCredit - один кредит и две параллельные
// брони на разные сессии: списание сериализуется блокировкой подписки
func TestConcurrentBooking_SingleCredit(t *testing.T) {
	ts := GetTestServer(t)
	db := ts.DB

	parent := helpers.CreateParentWithSubscription(t, ts, db, 1)
	first := helpers.CreateTestSession(t, db, 10, time.Now().Add(48*time.Hour))
	second := helpers.CreateTestSession(t, db, 10, time.Now().Add(72*time.Hour))

	t.Cleanup(func() {
		cleanupSessionFixture(db, first)
		cleanupSessionFixture(db, second)
		cleanupParentFixture(db, parent)
	})

	sessions := []*models.Session{first, second}
	statuses := make(chan int, len(sessions))
	errs := make(chan error, len(sessions))

	var start sync.WaitGroup
	start.Add(1)
	var done sync.WaitGroup
	for _, s := range sessions {
		done.Add(1)
		go func(s *models.Session) {
			defer done.Done()
			start.Wait()
			code, err := postBookingRaw(ts, parent.Token, s.ID, parent.Child.ID)
			if err != nil {
				errs <- err
				return
			}
			statuses <- code
		}(s)
	}
	start.Done()
	done.Wait()
	close(statuses)
	close(errs)

	for err := range errs {
		t.Fatalf("Запрос бронирования не дошел до сервера: %v", err)
	}

	okCount, limitCount := 0, 0
	for code := range statuses {
		switch code {
		case http.StatusOK:
			okCount++
		case http.StatusForbidden:
			limitCount++
		default:
			t.Errorf("Неожиданный статус конкурентного бронирования: %d", code)
		}
	}

	assert.Equal(t, 1, okCount, "кредит один - выиграть должна ровно одна бронь")
	assert.Equal(t, 1, limitCount)
	assert.Equal(t, 1, helpers.UsedCredits(t, db, parent.Subscription))
	assert.EqualValues(t, 1,
		helpers.BookedCount(t, db, first.ID)+helpers.BookedCount(t, db, second.ID))
}
