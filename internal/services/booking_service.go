package services

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"kidsbook_backend/internal/logger"
	"kidsbook_backend/internal/models"
	"kidsbook_backend/internal/repositories"
	"kidsbook_backend/internal/services/dto"
	"kidsbook_backend/pkg/apperrors"
)

// Clock - источник времени. Инжектируется, чтобы проверки дедлайна отмены
// и границ периода были детерминированы в тестах.
type Clock func() time.Time

// CancellationCutoff - фиксированное бизнес-правило: отмена запрещена
// ближе чем за 24 часа до начала сессии.
const CancellationCutoff = 24 * time.Hour

// maxTxRetries - число повторов транзакции при сериализационных сбоях
// хранилища, после чего клиенту возвращается retryable-ошибка.
const maxTxRetries = 3

type BookingService struct {
	childRepo        repositories.ChildRepository
	sessionRepo      repositories.SessionRepository
	bookingRepo      repositories.BookingRepository
	subscriptionRepo repositories.SubscriptionRepository
	clock            Clock
}

func NewBookingService(
	childRepo repositories.ChildRepository,
	sessionRepo repositories.SessionRepository,
	bookingRepo repositories.BookingRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	clock Clock,
) *BookingService {
	if clock == nil {
		clock = time.Now
	}
	return &BookingService{
		childRepo:        childRepo,
		sessionRepo:      sessionRepo,
		bookingRepo:      bookingRepo,
		subscriptionRepo: subscriptionRepo,
		clock:            clock,
	}
}

// eligibility - данные, прочитанные проверкой допуска под блокировками
type eligibility struct {
	child        *models.Child
	subscription *models.Subscription
	session      *models.Session
}

// checkEligibility выполняет все проверки допуска к бронированию.
// Обязана вызываться внутри транзакции: подписка и сессия читаются
// с SELECT ... FOR UPDATE, так что подсчет кредитов и вместимости
// сериализуется с конкурентными бронированиями.
//
// Порядок проверок фиксирован: владение ребенком -> активная подписка ->
// кредиты периода -> существование сессии -> вместимость -> дубликат.
func (s *BookingService) checkEligibility(tx *gorm.DB, userID, childID, sessionID string) (*eligibility, error) {
	child, err := s.childRepo.FindOwned(tx, childID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrChildNotFound) {
			return nil, apperrors.ErrChildNotFound
		}
		return nil, err
	}

	sub, err := s.subscriptionRepo.FindActiveByUserForUpdate(tx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, apperrors.ErrSubscriptionRequired
		}
		return nil, err
	}

	if !sub.Plan.IsUnlimited() {
		usedCredits := 0
		usage, err := s.subscriptionRepo.FindUsage(tx, sub.ID, sub.CurrentPeriodStart)
		if err != nil && !errors.Is(err, repositories.ErrUsageNotFound) {
			return nil, err
		}
		if usage != nil {
			usedCredits = usage.UsedCredits
		}

		if usedCredits >= sub.Plan.CreditsPerPeriod {
			return nil, apperrors.ErrCreditLimitReached
		}
	}

	session, err := s.sessionRepo.FindByIDForUpdate(tx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, err
	}

	bookedCount, err := s.sessionRepo.CountBooked(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if bookedCount >= int64(session.Capacity) {
		return nil, apperrors.ErrSessionFull
	}

	alreadyBooked, err := s.bookingRepo.ExistsBooked(tx, sessionID, childID)
	if err != nil {
		return nil, err
	}
	if alreadyBooked {
		return nil, apperrors.ErrAlreadyBooked
	}

	return &eligibility{child: child, subscription: sub, session: session}, nil
}

// BookSession атомарно создает бронирование и списывает один кредит
// текущего периода. Либо применяются обе записи, либо ни одной:
// проигравший гонку за последнее место/кредит откатывается без следа.
func (s *BookingService) BookSession(db *gorm.DB, userID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	var bookingID string

	err := s.withRetry(func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			elig, err := s.checkEligibility(tx, userID, req.ChildID, req.SessionID)
			if err != nil {
				return err
			}

			booking := &models.Booking{
				SessionID: req.SessionID,
				ChildID:   req.ChildID,
				UserID:    userID,
				Status:    models.BookingStatusBooked,
			}
			if err := s.bookingRepo.Create(tx, booking); err != nil {
				return err
			}

			if err := s.subscriptionRepo.ConsumeCredit(tx, elig.subscription); err != nil {
				return err
			}

			bookingID = booking.ID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Контекст для экрана подтверждения дочитывается вне транзакции
	created, err := s.bookingRepo.FindByID(db, bookingID)
	if err != nil {
		return nil, err
	}

	return bookingToResponse(created), nil
}

// CancelBooking отменяет бронирование и возвращает кредит.
// Отмена разрешена только владельцу, только из статуса BOOKED и только
// до дедлайна за 24 часа до начала сессии. Повторная отмена падает
// на проверке статуса и леджер не трогает.
func (s *BookingService) CancelBooking(db *gorm.DB, userID, bookingID string) error {
	return s.withRetry(func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			booking, err := s.bookingRepo.FindOwnedForUpdate(tx, bookingID, userID)
			if err != nil {
				if errors.Is(err, repositories.ErrBookingNotFound) {
					return apperrors.ErrBookingNotFound
				}
				return err
			}

			if booking.Status != models.BookingStatusBooked {
				return apperrors.ErrBookingNotActive
			}

			session, err := s.sessionRepo.FindByID(tx, booking.SessionID)
			if err != nil {
				return err
			}

			now := s.clock()
			if !CancellationAllowed(now, session.StartDateTime) {
				return apperrors.ErrCancellationCutoff
			}

			if err := s.bookingRepo.MarkCancelled(tx, booking.ID, now); err != nil {
				return err
			}

			// Кредит возвращается в текущий период подписки на момент отмены.
			// Если активной подписки больше нет, кредит не восстанавливается.
			sub, err := s.subscriptionRepo.FindActiveByUserForUpdate(tx, userID)
			if err != nil {
				if errors.Is(err, repositories.ErrSubscriptionNotFound) {
					return nil
				}
				return err
			}

			return s.subscriptionRepo.RestoreCredit(tx, sub)
		})
	})
}

// GetUserBookings возвращает бронирования родителя с контекстом
// ребенка/сессии/занятия, новые первыми.
func (s *BookingService) GetUserBookings(db *gorm.DB, userID string) ([]*dto.BookingResponse, error) {
	bookings, err := s.bookingRepo.FindByUser(db, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		result = append(result, bookingToResponse(&bookings[i]))
	}
	return result, nil
}

// ListAllBookings - платформенный список для админки
func (s *BookingService) ListAllBookings(db *gorm.DB, filter repositories.BookingListFilter) ([]*dto.BookingResponse, error) {
	bookings, err := s.bookingRepo.FindAll(db, filter)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		result = append(result, bookingToResponse(&bookings[i]))
	}
	return result, nil
}

// SetBookingStatus - административный переход BOOKED -> ATTENDED/NO_SHOW.
// Кредиты при этом не трогаются: посещенное или пропущенное занятие
// остается списанным.
func (s *BookingService) SetBookingStatus(db *gorm.DB, bookingID string, status models.BookingStatus) error {
	if status != models.BookingStatusAttended && status != models.BookingStatusNoShow {
		return apperrors.ErrInvalidStatus("booking", "Status must be ATTENDED or NO_SHOW")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByID(tx, bookingID)
		if err != nil {
			if errors.Is(err, repositories.ErrBookingNotFound) {
				return apperrors.ErrBookingNotFound
			}
			return err
		}

		if booking.Status != models.BookingStatusBooked {
			return apperrors.ErrBookingNotActive
		}

		return s.bookingRepo.UpdateStatus(tx, bookingID, status)
	})
}

// CancellationAllowed сообщает, не прошел ли дедлайн отмены для сессии,
// начинающейся в sessionStart.
func CancellationAllowed(now, sessionStart time.Time) bool {
	cutoff := sessionStart.Add(-CancellationCutoff)
	return !now.After(cutoff)
}

// withRetry повторяет транзакцию при сериализационных сбоях и дедлоках.
// Логика внутри fn обязана быть идемпотентной до коммита.
func (s *BookingService) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = fn()
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		logger.Warn("booking transaction retry", "attempt", attempt+1, "error", err.Error())
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return apperrors.ErrTransient(err)
}

// isRetryableTxError распознает serialization_failure (40001)
// и deadlock_detected (40P01) PostgreSQL.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func bookingToResponse(b *models.Booking) *dto.BookingResponse {
	return &dto.BookingResponse{
		ID:            b.ID,
		Status:        string(b.Status),
		ChildName:     b.Child.Name,
		ActivityTitle: b.Session.Activity.Title,
		PartnerName:   b.Session.Activity.Partner.Name,
		StartDateTime: b.Session.StartDateTime,
		EndDateTime:   b.Session.EndDateTime,
		CancelledAt:   b.CancelledAt,
		CreatedAt:     b.CreatedAt,
	}
}
