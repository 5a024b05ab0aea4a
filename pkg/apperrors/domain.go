package apperrors

import (
	"net/http"
)

/*
Предопределенные ошибки и фабрики для доменной логики бронирований,
подписок и кредитного лимита.
*/

// --- Фабрики ---

// ErrNotFound - фабрика для ошибки "не найдено" (404).
// Используется, когда ошибка репозитория (типа gorm.ErrRecordNotFound)
// должна быть преобразована в AppError.
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrInvalidStatus - фабрика для операций над сущностью в неподходящем статусе (400)
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusBadRequest)
}

// ErrTransient - хранилище не смогло сериализовать конкурентные транзакции
// даже после повторных попыток. Клиент может безопасно повторить запрос.
func ErrTransient(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "store",
		"Temporary conflict, please retry", http.StatusServiceUnavailable)
}

// --- Auth ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"An account with this email already exists",
	http.StatusBadRequest,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

// --- Bookings ---

var ErrChildNotFound = New(
	CodeNotFound,
	"booking",
	"Child not found",
	http.StatusNotFound,
)

var ErrSessionNotFound = New(
	CodeNotFound,
	"booking",
	"Session not found",
	http.StatusNotFound,
)

var ErrBookingNotFound = New(
	CodeNotFound,
	"booking",
	"Booking not found",
	http.StatusNotFound,
)

// ErrSessionFull - все места сессии заняты бронированиями в статусе BOOKED.
// По контракту API это 400, а не 409: клиент должен выбрать другую сессию.
var ErrSessionFull = New(
	CodeConflict,
	"booking",
	"Session is full",
	http.StatusBadRequest,
)

// ErrAlreadyBooked - для пары (сессия, ребенок) уже есть активное бронирование.
var ErrAlreadyBooked = New(
	CodeConflict,
	"booking",
	"Already booked for this session",
	http.StatusBadRequest,
)

var ErrBookingNotActive = New(
	CodeInvalidStatus,
	"booking",
	"Booking is not active",
	http.StatusBadRequest,
)

// ErrCancellationCutoff - отмена запрещена ближе чем за 24 часа до начала.
var ErrCancellationCutoff = New(
	CodeInvalidStatus,
	"booking",
	"Cannot cancel within 24 hours of activity start",
	http.StatusBadRequest,
)

// --- Subscriptions ---

var ErrSubscriptionRequired = New(
	CodeForbidden,
	"subscription",
	"Active subscription required",
	http.StatusForbidden,
)

// ErrCreditLimitReached - лимит кредитов плана на текущий период исчерпан.
var ErrCreditLimitReached = New(
	CodeLimitExceeded,
	"subscription",
	"Monthly booking limit reached",
	http.StatusForbidden,
)

var ErrPlanNotFound = New(
	CodeNotFound,
	"subscription",
	"Plan not found",
	http.StatusNotFound,
)

var ErrStripeError = New(
	CodeExternalServiceError,
	"billing",
	"Payment provider error",
	http.StatusServiceUnavailable,
)

// --- Admin / catalog ---

var ErrPartnerNotFound = New(
	CodeNotFound,
	"catalog",
	"Partner not found",
	http.StatusNotFound,
)

var ErrActivityNotFound = New(
	CodeNotFound,
	"catalog",
	"Activity not found",
	http.StatusNotFound,
)
