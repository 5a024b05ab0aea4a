package contextkeys

// Ключи для передачи значений через gin.Context / context.Context
type contextKey string

// DBContextKey - под этим ключом DBMiddleware кладет *gorm.DB (пул или транзакцию)
const DBContextKey = contextKey("db")
