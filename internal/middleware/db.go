package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kidsbook_backend/internal/logger"
	"kidsbook_backend/pkg/contextkeys"
)

// DBMiddleware кладет пул *gorm.DB в gin.Context под общим ключом.
// В интеграционных тестах сюда вместо пула подставляется транзакция,
// которую тест откатывает после завершения.
func DBMiddleware(db *gorm.DB) gin.HandlerFunc {
	dbKey := string(contextkeys.DBContextKey)

	return func(c *gin.Context) {
		if _, exists := c.Get(dbKey); !exists {
			c.Set(dbKey, db)
		}
		c.Next()
	}
}

// RequestIDMiddleware генерирует request_id и прокидывает его в context,
// чтобы все логи запроса можно было скоррелировать.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// LoggingMiddleware пишет структурированный access-лог
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.HTTPLog(
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
			c.Writer.Size(),
		)
	}
}
