package services

import (
	"time"

	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/repositories"
	"masterplace_backend/internal/services/dto"
)

// SubscriptionService — Quota Ledger: учёт использования квот подписки и
// активация запланированных тарифов.
type SubscriptionService interface {
	ListTariffs() ([]*dto.TariffDTO, error)
	GetState(userID string) (*dto.SubscriptionStateDTO, error)

	// Subscribe активирует тариф немедленно, если активного нет, иначе
	// планирует его на конец текущего периода.
	Subscribe(userID string, req *dto.SubscribeRequest) (*dto.SubscriptionStateDTO, error)

	// ActivatePendingTariffIfDue вводит запланированный тариф в действие,
	// если его срок наступил. Вызывается перед каждым действием, гейченным
	// квотой, а не только по таймеру.
	ActivatePendingTariffIfDue(userID string) (*dto.SubscriptionStateDTO, error)

	// ConsumeQuota расходует единицу квоты, предварительно активировав
	// подошедший запланированный тариф.
	ConsumeQuota(userID string, kind models.QuotaKind) error
	ReleaseQuota(userID string, kind models.QuotaKind) error

	// ActivateDueTariffs — батч для фонового воркера.
	ActivateDueTariffs() (int, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
	now              func() time.Time
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		now:              time.Now,
	}
}

func (s *subscriptionService) ListTariffs() ([]*dto.TariffDTO, error) {
	tariffs, err := s.subscriptionRepo.FindActiveTariffs()
	if err != nil {
		return nil, err
	}

	var result []*dto.TariffDTO
	for i := range tariffs {
		result = append(result, dto.BuildTariffDTO(&tariffs[i]))
	}
	return result, nil
}

func (s *subscriptionService) GetState(userID string) (*dto.SubscriptionStateDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound.WithError(err)
	}
	return buildStateDTO(user), nil
}

func (s *subscriptionService) Subscribe(userID string, req *dto.SubscribeRequest) (*dto.SubscriptionStateDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound.WithError(err)
	}

	tariff, err := s.subscriptionRepo.FindTariffByID(req.TariffID)
	if err != nil {
		return nil, apperrors.NotFound("tariff").WithError(err)
	}

	now := s.now()
	duration := time.Duration(tariff.DurationDays) * 24 * time.Hour

	hasActive := user.TariffID != nil && user.SubscriptionEnd != nil &&
		user.SubscriptionEnd.After(now)

	if hasActive {
		// Бесшовное продление: новый период начнётся по окончании текущего.
		start := *user.SubscriptionEnd
		end := start.Add(duration)
		if err := s.subscriptionRepo.ScheduleNextTariff(userID, tariff.ID, start, end); err != nil {
			return nil, err
		}
	} else {
		if err := s.subscriptionRepo.ActivateTariff(userID, tariff.ID, now, now.Add(duration)); err != nil {
			return nil, err
		}
	}

	return s.GetState(userID)
}

func (s *subscriptionService) ActivatePendingTariffIfDue(userID string) (*dto.SubscriptionStateDTO, error) {
	activated, err := s.subscriptionRepo.ActivateNextTariffIfDue(userID, s.now())
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.ErrUserNotFound.WithError(err)
		}
		return nil, err
	}
	if activated {
		logger.Info("scheduled tariff activated", "user_id", userID)
	}
	return s.GetState(userID)
}

func (s *subscriptionService) ConsumeQuota(userID string, kind models.QuotaKind) error {
	// Мобильный клиент может действовать в любой момент, поэтому
	// подошедший запланированный тариф активируется прямо здесь.
	if _, err := s.subscriptionRepo.ActivateNextTariffIfDue(userID, s.now()); err != nil {
		return err
	}

	err := s.subscriptionRepo.ConsumeQuota(userID, kind)
	switch err {
	case nil:
		return nil
	case repositories.ErrQuotaExceeded:
		return apperrors.ErrQuotaExceeded.WithError(err)
	case repositories.ErrNoActiveTariff:
		return apperrors.ErrNoActiveTariff.WithError(err)
	default:
		return err
	}
}

func (s *subscriptionService) ReleaseQuota(userID string, kind models.QuotaKind) error {
	return s.subscriptionRepo.ReleaseQuota(userID, kind)
}

func (s *subscriptionService) ActivateDueTariffs() (int, error) {
	users, err := s.subscriptionRepo.FindUsersWithDueNextTariff(s.now())
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range users {
		activated, err := s.subscriptionRepo.ActivateNextTariffIfDue(users[i].ID, s.now())
		if err != nil {
			logger.Error("failed to activate due tariff", "user_id", users[i].ID, "error", err)
			continue
		}
		if activated {
			count++
		}
	}
	return count, nil
}

func buildStateDTO(user *models.User) *dto.SubscriptionStateDTO {
	state := &dto.SubscriptionStateDTO{
		TariffID:          user.TariffID,
		SubscriptionStart: user.SubscriptionStart,
		SubscriptionEnd:   user.SubscriptionEnd,
		NextTariffID:      user.NextTariffID,
		NextTariffStart:   user.NextTariffStart,
		UsedOrdersCount:   user.UsedOrdersCount,
		UsedContactsCount: user.UsedContactsCount,
	}
	if user.Tariff != nil {
		state.TariffName = user.Tariff.Name
		state.MaxOrders = user.Tariff.MaxOrders
		state.MaxContacts = user.Tariff.MaxContacts
		state.CanRespond = user.Tariff.AllowsOrders(user.UsedOrdersCount)
		state.CanOpenContact = user.Tariff.AllowsContacts(user.UsedContactsCount)
	}
	return state
}
