package integration_test

import (
	"log"
	"os"
	"sync"
	"testing"

	"kidsbook_backend/test/helpers"
)

// Тесты разделяют один сервер и одну тестовую транзакцию за раз,
// поэтому выполняются последовательно.
var (
	globalTestServer *helpers.TestServer
	serverOnce       sync.Once
)

// GetTestServer возвращает тестовый сервер (создает при первом вызове).
// Пропускает тест, если тестовая БД не сконфигурирована.
func GetTestServer(t *testing.T) *helpers.TestServer {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL не задан, пропускаем интеграционные тесты")
	}

	serverOnce.Do(func() {
		os.Setenv("SERVER_ENV", "test")
		if os.Getenv("JWT_SECRET") == "" {
			os.Setenv("JWT_SECRET", "test-secret-key-12345")
		}

		log.Println("--- [GetTestServer] Initializing test server... ---")
		globalTestServer = helpers.NewTestServer(t)
		log.Println("--- [GetTestServer] Test server ready ---")
	})
	return globalTestServer
}

func TestMain(m *testing.M) {
	code := m.Run()

	if globalTestServer != nil {
		globalTestServer.Close()
	}

	os.Exit(code)
}
