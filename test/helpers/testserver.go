package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"kidsbook_backend/internal/app"
	"kidsbook_backend/internal/config"
	"kidsbook_backend/internal/database"
	"kidsbook_backend/pkg/contextkeys"
)

// TestServer - httptest-сервер поверх полного роутера приложения.
// BeginTransaction подставляет транзакцию вместо пула на время теста,
// поэтому все изменения откатываются и тесты не мусорят в БД.
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB

	mu sync.Mutex
	tx *gorm.DB
}

// NewTestServer создает тестовый сервер и подключается к тестовой БД.
// Конфиг берется из окружения (DATABASE_URL и т.д.).
func NewTestServer(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	config.LoadConfig()
	cfg := config.GetConfig()
	dsn := cfg.Database.DSN

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Не удалось подключиться к тестовой БД (%s): %v", dsn, err)
	}

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Не удалось выполнить миграции тестовой БД: %v", err)
	}

	ts := &TestServer{DB: db}

	router := app.SetupRouter(cfg, db, ts.txOverrideMiddleware())
	ts.Server = httptest.NewServer(router)

	return ts
}

// txOverrideMiddleware подкладывает текущую тестовую транзакцию
// под ключ БД до того, как DBMiddleware положит туда пул.
func (ts *TestServer) txOverrideMiddleware() gin.HandlerFunc {
	dbKey := string(contextkeys.DBContextKey)

	return func(c *gin.Context) {
		ts.mu.Lock()
		tx := ts.tx
		ts.mu.Unlock()

		if tx != nil {
			c.Set(dbKey, tx)
		}
		c.Next()
	}
}

// BeginTransaction открывает транзакцию и направляет в нее все
// последующие запросы через сервер. Тесты с этим хелпером
// должны выполняться последовательно.
func (ts *TestServer) BeginTransaction(t *testing.T) *gorm.DB {
	tx := ts.DB.Begin()
	if tx.Error != nil {
		t.Fatalf("Не удалось открыть транзакцию: %v", tx.Error)
	}

	ts.mu.Lock()
	ts.tx = tx
	ts.mu.Unlock()

	return tx
}

// RollbackTransaction откатывает тестовую транзакцию и возвращает
// сервер на пул.
func (ts *TestServer) RollbackTransaction(t *testing.T, tx *gorm.DB) {
	ts.mu.Lock()
	ts.tx = nil
	ts.mu.Unlock()

	if err := tx.Rollback().Error; err != nil && err != gorm.ErrInvalidTransaction {
		t.Logf("Не удалось откатить транзакцию: %v", err)
	}
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	sqlDB, _ := ts.DB.DB()
	sqlDB.Close()
}

// SendRequest выполняет JSON-запрос к тестовому серверу
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	url := ts.Server.URL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}
	defer res.Body.Close()

	return res, string(resBodyBytes)
}
