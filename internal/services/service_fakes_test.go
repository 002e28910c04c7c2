package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"masterplace_backend/internal/models"
	"masterplace_backend/internal/payments"
	"masterplace_backend/internal/repositories"

	"gorm.io/datatypes"
)

// In-memory фейки репозиториев. Повторяют семантику условных UPDATE
// реальных реализаций: переход проходит только из ожидаемого статуса.

var fakeIDSeq int

func nextID(prefix string) string {
	fakeIDSeq++
	return fmt.Sprintf("%s-%d", prefix, fakeIDSeq)
}

// --- users ---

type fakeUserRepo struct {
	users           map[string]*models.User
	managerProfiles map[string]*models.ManagerProfile // по userID
	partnerProfiles map[string]*models.PartnerProfile // по ID профиля
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:           make(map[string]*models.User),
		managerProfiles: make(map[string]*models.ManagerProfile),
		partnerProfiles: make(map[string]*models.PartnerProfile),
	}
}

func (r *fakeUserRepo) addUser(user *models.User) *models.User {
	if user.ID == "" {
		user.ID = nextID("user")
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	r.addUser(user)
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) CreateManagerProfile(profile *models.ManagerProfile) error {
	if profile.ID == "" {
		profile.ID = nextID("mgr")
	}
	r.managerProfiles[profile.UserID] = profile
	return nil
}

func (r *fakeUserRepo) FindManagerProfile(userID string) (*models.ManagerProfile, error) {
	profile, ok := r.managerProfiles[userID]
	if !ok {
		return nil, repositories.ErrManagerProfileNotFound
	}
	return profile, nil
}

func (r *fakeUserRepo) CreatePartnerProfile(profile *models.PartnerProfile) error {
	if profile.ID == "" {
		profile.ID = nextID("partner")
	}
	r.partnerProfiles[profile.ID] = profile
	if profile.ManagerID != nil {
		if manager, ok := r.managerProfiles[*profile.ManagerID]; ok {
			manager.TotalPartners++
			if profile.IsActive {
				manager.ActivePartners++
			}
		}
	}
	return nil
}

func (r *fakeUserRepo) FindPartnerProfile(userID string) (*models.PartnerProfile, error) {
	for _, profile := range r.partnerProfiles {
		if profile.UserID == userID {
			return profile, nil
		}
	}
	return nil, repositories.ErrPartnerProfileNotFound
}

func (r *fakeUserRepo) FindPartnerProfileByID(id string) (*models.PartnerProfile, error) {
	profile, ok := r.partnerProfiles[id]
	if !ok {
		return nil, repositories.ErrPartnerProfileNotFound
	}
	return profile, nil
}

func (r *fakeUserRepo) FindPartnerByReferralCode(code string) (*models.PartnerProfile, error) {
	for _, profile := range r.partnerProfiles {
		if profile.ReferralCode == code {
			return profile, nil
		}
	}
	return nil, repositories.ErrPartnerProfileNotFound
}

// --- orders ---

type fakeOrderRepo struct {
	orders map[string]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (r *fakeOrderRepo) addOrder(order *models.Order) *models.Order {
	if order.ID == "" {
		order.ID = nextID("order")
	}
	r.orders[order.ID] = order
	return order
}

func (r *fakeOrderRepo) Create(order *models.Order) error {
	r.addOrder(order)
	return nil
}

func (r *fakeOrderRepo) Update(order *models.Order) error {
	if _, ok := r.orders[order.ID]; !ok {
		return repositories.ErrOrderNotFound
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) FindByID(id string) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, repositories.ErrOrderNotFound
	}
	// Сервисы мутируют результат — отдаём копию, как это делает БД.
	clone := *order
	return &clone, nil
}

func (r *fakeOrderRepo) ListByCustomer(customerID string) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) ListByExecutor(executorID string) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range r.orders {
		if order.ExecutorID != nil && *order.ExecutorID == executorID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) ListByMediator(mediatorID string) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range r.orders {
		if order.MediatorID != nil && *order.MediatorID == mediatorID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) ListSearching(limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range r.orders {
		if order.Status == models.OrderStatusSearching {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) transition(id string, from, to models.OrderStatus, mutate func(*models.Order)) error {
	order, ok := r.orders[id]
	if !ok {
		return repositories.ErrOrderNotFound
	}
	if order.Status != from {
		return repositories.ErrStatusConflict
	}
	order.Status = to
	if mutate != nil {
		mutate(order)
	}
	return nil
}

func (r *fakeOrderRepo) TransitionStatus(id string, from, to models.OrderStatus) error {
	return r.transition(id, from, to, nil)
}

func (r *fakeOrderRepo) SelectExecutor(id string, from models.OrderStatus, executorID string, escrowHold float64) error {
	order, ok := r.orders[id]
	if !ok {
		return repositories.ErrOrderNotFound
	}
	if escrowHold > order.MaxAmount {
		return repositories.ErrEscrowOverLimit
	}
	return r.transition(id, from, models.OrderStatusExecutorSelected, func(o *models.Order) {
		o.ExecutorID = &executorID
		o.EscrowStatus = models.EscrowStatusHeld
		o.EscrowAmountHeld = escrowHold
	})
}

func (r *fakeOrderRepo) ReleaseExecutor(id string, from models.OrderStatus) error {
	return r.transition(id, from, models.OrderStatusSearching, func(o *models.Order) {
		o.ExecutorID = nil
		o.EscrowStatus = models.EscrowStatusRefunded
		o.EscrowAmountHeld = 0
	})
}

func (r *fakeOrderRepo) SetExecutorCompleted(id string, from, to models.OrderStatus, at time.Time) error {
	return r.transition(id, from, to, func(o *models.Order) {
		o.CompletedByExecutor = true
		o.CompletedByExecutorAt = &at
	})
}

func (r *fakeOrderRepo) SetCustomerCompleted(id string, from, to models.OrderStatus, at time.Time) error {
	return r.transition(id, from, to, func(o *models.Order) {
		o.CompletedByCustomer = true
		o.CompletedByCustomerAt = &at
	})
}

func (r *fakeOrderRepo) ClearCompletionFlags(id string, from, to models.OrderStatus) error {
	return r.transition(id, from, to, func(o *models.Order) {
		o.CompletedByExecutor = false
		o.CompletedByExecutorAt = nil
	})
}

func (r *fakeOrderRepo) ReleaseEscrow(id string) error {
	order, ok := r.orders[id]
	if !ok {
		return repositories.ErrOrderNotFound
	}
	if order.EscrowStatus == models.EscrowStatusHeld {
		order.EscrowStatus = models.EscrowStatusReleased
		order.EscrowAmountHeld = 0
	}
	return nil
}

func (r *fakeOrderRepo) RefundEscrow(id string) error {
	order, ok := r.orders[id]
	if !ok {
		return repositories.ErrOrderNotFound
	}
	if order.EscrowStatus == models.EscrowStatusHeld {
		order.EscrowStatus = models.EscrowStatusRefunded
		order.EscrowAmountHeld = 0
	}
	return nil
}

// --- responses ---

type fakeResponseRepo struct {
	responses  map[string]*models.OrderResponse
	orderRepo  *fakeOrderRepo
	failCreate error
}

func newFakeResponseRepo(orderRepo *fakeOrderRepo) *fakeResponseRepo {
	return &fakeResponseRepo{
		responses: make(map[string]*models.OrderResponse),
		orderRepo: orderRepo,
	}
}

func (r *fakeResponseRepo) addResponse(response *models.OrderResponse) *models.OrderResponse {
	if response.ID == "" {
		response.ID = nextID("resp")
	}
	r.responses[response.ID] = response
	return response
}

func (r *fakeResponseRepo) Create(response *models.OrderResponse) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, existing := range r.responses {
		if existing.OrderID == response.OrderID &&
			existing.ExecutorID == response.ExecutorID &&
			existing.Status.IsActive() {
			return repositories.ErrResponseAlreadyExists
		}
	}
	r.addResponse(response)
	return nil
}

func (r *fakeResponseRepo) FindByID(id string) (*models.OrderResponse, error) {
	response, ok := r.responses[id]
	if !ok {
		return nil, repositories.ErrResponseNotFound
	}
	clone := *response
	return &clone, nil
}

func (r *fakeResponseRepo) ListByOrder(orderID string) ([]models.OrderResponse, error) {
	var responses []models.OrderResponse
	for _, response := range r.responses {
		if response.OrderID == orderID {
			responses = append(responses, *response)
		}
	}
	return responses, nil
}

func (r *fakeResponseRepo) ListByExecutor(executorID string) ([]models.OrderResponse, error) {
	var responses []models.OrderResponse
	for _, response := range r.responses {
		if response.ExecutorID == executorID {
			responses = append(responses, *response)
		}
	}
	return responses, nil
}

func (r *fakeResponseRepo) TransitionStatus(id string, from, to models.ResponseStatus) error {
	response, ok := r.responses[id]
	if !ok {
		return repositories.ErrResponseNotFound
	}
	if response.Status != from {
		return repositories.ErrResponseConflict
	}
	response.Status = to
	return nil
}

func (r *fakeResponseRepo) Select(orderID, responseID string, escrowHold float64) (*models.OrderResponse, error) {
	order, ok := r.orderRepo.orders[orderID]
	if !ok {
		return nil, repositories.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusSearching &&
		order.Status != models.OrderStatusSelectingExecutor {
		return nil, repositories.ErrStatusConflict
	}

	selected, ok := r.responses[responseID]
	if !ok || selected.OrderID != orderID {
		return nil, repositories.ErrResponseNotFound
	}
	if selected.Status == models.ResponseStatusRejected ||
		selected.Status == models.ResponseStatusTakenIntoWork {
		return nil, repositories.ErrResponseConflict
	}
	if escrowHold > order.MaxAmount {
		return nil, repositories.ErrEscrowOverLimit
	}

	selected.Status = models.ResponseStatusTakenIntoWork
	for _, rival := range r.responses {
		if rival.OrderID == orderID && rival.ID != responseID &&
			rival.Status != models.ResponseStatusRejected {
			rival.Status = models.ResponseStatusRejected
			rival.RejectedBy = models.ResponseRejectedAuto
		}
	}

	// Инвариант: после автоотклонения в работе ровно один отклик.
	var taken int
	for _, response := range r.responses {
		if response.OrderID == orderID && response.Status == models.ResponseStatusTakenIntoWork {
			taken++
		}
	}
	if taken != 1 {
		return nil, repositories.ErrResponseConflict
	}

	order.Status = models.OrderStatusExecutorSelected
	order.ExecutorID = &selected.ExecutorID
	order.EscrowStatus = models.EscrowStatusHeld
	order.EscrowAmountHeld = escrowHold

	clone := *selected
	return &clone, nil
}

func (r *fakeResponseRepo) Reject(responseID, rejectedBy string, releaseOrder bool) (*models.OrderResponse, error) {
	response, ok := r.responses[responseID]
	if !ok {
		return nil, repositories.ErrResponseNotFound
	}
	if response.Status == models.ResponseStatusRejected {
		return nil, repositories.ErrResponseConflict
	}

	wasSelected := response.Status == models.ResponseStatusTakenIntoWork
	response.Status = models.ResponseStatusRejected
	response.RejectedBy = rejectedBy

	if wasSelected && releaseOrder {
		err := r.orderRepo.transition(response.OrderID,
			models.OrderStatusExecutorSelected, models.OrderStatusSearching,
			func(o *models.Order) {
				o.ExecutorID = nil
				o.EscrowStatus = models.EscrowStatusRefunded
				o.EscrowAmountHeld = 0
			})
		if err != nil {
			return nil, err
		}
	}

	clone := *response
	return &clone, nil
}

// --- subscriptions ---

// fakeSubscriptionRepo мутирует те же *models.User, что и fakeUserRepo,
// чтобы GetState видел эффект активаций и расхода квот.
type fakeSubscriptionRepo struct {
	userRepo *fakeUserRepo
	tariffs  map[string]*models.Tariff
}

func newFakeSubscriptionRepo(userRepo *fakeUserRepo) *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		userRepo: userRepo,
		tariffs:  make(map[string]*models.Tariff),
	}
}

func (r *fakeSubscriptionRepo) addTariff(tariff *models.Tariff) *models.Tariff {
	if tariff.ID == "" {
		tariff.ID = nextID("tariff")
	}
	r.tariffs[tariff.ID] = tariff
	return tariff
}

func (r *fakeSubscriptionRepo) CreateTariff(tariff *models.Tariff) error {
	r.addTariff(tariff)
	return nil
}

func (r *fakeSubscriptionRepo) FindTariffByID(id string) (*models.Tariff, error) {
	tariff, ok := r.tariffs[id]
	if !ok {
		return nil, repositories.ErrTariffNotFound
	}
	return tariff, nil
}

func (r *fakeSubscriptionRepo) FindActiveTariffs() ([]models.Tariff, error) {
	var tariffs []models.Tariff
	for _, tariff := range r.tariffs {
		if tariff.IsActive {
			tariffs = append(tariffs, *tariff)
		}
	}
	return tariffs, nil
}

func (r *fakeSubscriptionRepo) UpdateTariff(tariff *models.Tariff) error {
	if _, ok := r.tariffs[tariff.ID]; !ok {
		return repositories.ErrTariffNotFound
	}
	r.tariffs[tariff.ID] = tariff
	return nil
}

func (r *fakeSubscriptionRepo) ActivateTariff(userID, tariffID string, start, end time.Time) error {
	user, ok := r.userRepo.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.TariffID = &tariffID
	user.Tariff = r.tariffs[tariffID]
	user.SubscriptionStart = &start
	user.SubscriptionEnd = &end
	user.UsedOrdersCount = 0
	user.UsedContactsCount = 0
	return nil
}

func (r *fakeSubscriptionRepo) ScheduleNextTariff(userID, tariffID string, start, end time.Time) error {
	user, ok := r.userRepo.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.NextTariffID = &tariffID
	user.NextTariffStart = &start
	user.NextTariffEnd = &end
	return nil
}

func (r *fakeSubscriptionRepo) ActivateNextTariffIfDue(userID string, now time.Time) (bool, error) {
	user, ok := r.userRepo.users[userID]
	if !ok {
		return false, repositories.ErrUserNotFound
	}
	if user.NextTariffID == nil || user.NextTariffStart == nil ||
		user.NextTariffStart.After(now) {
		return false, nil
	}

	user.TariffID = user.NextTariffID
	user.Tariff = r.tariffs[*user.NextTariffID]
	user.SubscriptionStart = user.NextTariffStart
	user.SubscriptionEnd = user.NextTariffEnd
	user.NextTariffID = nil
	user.NextTariffStart = nil
	user.NextTariffEnd = nil
	user.UsedOrdersCount = 0
	user.UsedContactsCount = 0
	return true, nil
}

func (r *fakeSubscriptionRepo) ConsumeQuota(userID string, kind models.QuotaKind) error {
	user, ok := r.userRepo.users[userID]
	if !ok || user.TariffID == nil {
		return repositories.ErrNoActiveTariff
	}
	tariff := r.tariffs[*user.TariffID]

	if kind == models.QuotaKindContacts {
		if !tariff.AllowsContacts(user.UsedContactsCount) {
			return repositories.ErrQuotaExceeded
		}
		user.UsedContactsCount++
		return nil
	}
	if !tariff.AllowsOrders(user.UsedOrdersCount) {
		return repositories.ErrQuotaExceeded
	}
	user.UsedOrdersCount++
	return nil
}

func (r *fakeSubscriptionRepo) ReleaseQuota(userID string, kind models.QuotaKind) error {
	user, ok := r.userRepo.users[userID]
	if !ok {
		return nil
	}
	if kind == models.QuotaKindContacts {
		if user.UsedContactsCount > 0 {
			user.UsedContactsCount--
		}
		return nil
	}
	if user.UsedOrdersCount > 0 {
		user.UsedOrdersCount--
	}
	return nil
}

func (r *fakeSubscriptionRepo) FindExpiredSubscriptions(now time.Time) ([]models.User, error) {
	var users []models.User
	for _, user := range r.userRepo.users {
		if user.TariffID != nil && user.SubscriptionEnd != nil && user.SubscriptionEnd.Before(now) {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (r *fakeSubscriptionRepo) FindUsersWithDueNextTariff(now time.Time) ([]models.User, error) {
	var users []models.User
	for _, user := range r.userRepo.users {
		if user.NextTariffID != nil && user.NextTariffStart != nil &&
			!user.NextTariffStart.After(now) {
			users = append(users, *user)
		}
	}
	return users, nil
}

// --- mediator steps ---

type fakeMediatorRepo struct {
	steps     map[string]*models.MediatorStep
	orderRepo *fakeOrderRepo
}

func newFakeMediatorRepo(orderRepo *fakeOrderRepo) *fakeMediatorRepo {
	return &fakeMediatorRepo{
		steps:     make(map[string]*models.MediatorStep),
		orderRepo: orderRepo,
	}
}

func (r *fakeMediatorRepo) activeStep(orderID string) *models.MediatorStep {
	for _, step := range r.steps {
		if step.OrderID == orderID && step.Status == models.StepStatusActive {
			return step
		}
	}
	return nil
}

func (r *fakeMediatorRepo) createStep(orderID, mediatorID string, number int) *models.MediatorStep {
	step := &models.MediatorStep{
		OrderID:    orderID,
		MediatorID: mediatorID,
		Step:       number,
		Status:     models.StepStatusActive,
		StartedAt:  time.Now(),
	}
	step.ID = nextID("step")
	r.steps[step.ID] = step
	return step
}

func (r *fakeMediatorRepo) Assign(orderID, mediatorID string, agreedPrice, fixedFee, commissionPercent *float64) (*models.MediatorStep, error) {
	err := r.orderRepo.transition(orderID, models.OrderStatusSearching,
		models.OrderStatusMediatorClarify, func(o *models.Order) {
			o.MediatorID = &mediatorID
			o.MediatorAgreedPrice = agreedPrice
			o.MediatorFixedFee = fixedFee
			o.MediatorCommissionPercent = commissionPercent
		})
	if err != nil {
		return nil, err
	}
	return r.createStep(orderID, mediatorID, models.MediatorStepClarify), nil
}

func (r *fakeMediatorRepo) FindActiveStep(orderID string) (*models.MediatorStep, error) {
	step := r.activeStep(orderID)
	if step == nil {
		return nil, repositories.ErrNoActiveStep
	}
	clone := *step
	return &clone, nil
}

func (r *fakeMediatorRepo) FindStepByID(id string) (*models.MediatorStep, error) {
	step, ok := r.steps[id]
	if !ok {
		return nil, repositories.ErrStepNotFound
	}
	clone := *step
	return &clone, nil
}

func (r *fakeMediatorRepo) ListSteps(orderID string) ([]models.MediatorStep, error) {
	var steps []models.MediatorStep
	for number := models.MediatorStepClarify; number <= models.MediatorStepExecute; number++ {
		for _, step := range r.steps {
			if step.OrderID == orderID && step.Step == number {
				steps = append(steps, *step)
			}
		}
	}
	return steps, nil
}

func (r *fakeMediatorRepo) Advance(orderID string, progress datatypes.JSON) (*models.MediatorStep, error) {
	order, ok := r.orderRepo.orders[orderID]
	if !ok {
		return nil, repositories.ErrOrderNotFound
	}
	step := r.activeStep(orderID)
	if step == nil {
		return nil, repositories.ErrNoActiveStep
	}
	if step.Step >= models.MediatorStepExecute {
		return nil, repositories.ErrStepFinal
	}

	now := time.Now()
	step.Status = models.StepStatusCompleted
	step.Progress = progress
	step.CompletedAt = &now

	next := r.createStep(orderID, step.MediatorID, step.Step+1)
	order.Status = models.OrderStatusForStep(next.Step)

	clone := *next
	return &clone, nil
}

func (r *fakeMediatorRepo) Archive(orderID, reason string) error {
	order, ok := r.orderRepo.orders[orderID]
	if !ok {
		return repositories.ErrOrderNotFound
	}
	step := r.activeStep(orderID)
	if step == nil {
		return repositories.ErrNoActiveStep
	}
	step.Status = models.StepStatusArchived
	step.Reason = reason
	order.Status = models.OrderStatusMediatorArchived
	return nil
}

func (r *fakeMediatorRepo) ReturnToPool(orderID, reason string) error {
	order, ok := r.orderRepo.orders[orderID]
	if !ok {
		return repositories.ErrOrderNotFound
	}
	step := r.activeStep(orderID)
	if step == nil {
		return repositories.ErrNoActiveStep
	}
	step.Status = models.StepStatusReturned
	step.Reason = reason

	order.Status = models.OrderStatusSearching
	order.MediatorID = nil
	order.MediatorAgreedPrice = nil
	order.MediatorFixedFee = nil
	order.MediatorCommissionPercent = nil
	order.MediatorMargin = nil
	return nil
}

func (r *fakeMediatorRepo) CompleteFinal(orderID string, progress datatypes.JSON) (*models.MediatorStep, error) {
	step := r.activeStep(orderID)
	if step == nil {
		return nil, repositories.ErrNoActiveStep
	}
	if step.Step != models.MediatorStepExecute {
		return nil, repositories.ErrStepNotActive
	}

	now := time.Now()
	step.Status = models.StepStatusCompleted
	step.Progress = progress
	step.CompletedAt = &now

	clone := *step
	return &clone, nil
}

// --- settlement ---

type fakeSettlementRepo struct {
	rewards   map[string]*models.RewardRecord
	cashbacks map[string]*models.CashbackTransaction
	users     *fakeUserRepo

	// Агрегаты владельцев для проверки exactly-once семантики.
	pendingByOwner   map[string]float64
	balanceByPartner map[string]float64

	failCreateReward error
}

func newFakeSettlementRepo(users *fakeUserRepo) *fakeSettlementRepo {
	return &fakeSettlementRepo{
		rewards:          make(map[string]*models.RewardRecord),
		cashbacks:        make(map[string]*models.CashbackTransaction),
		users:            users,
		pendingByOwner:   make(map[string]float64),
		balanceByPartner: make(map[string]float64),
	}
}

func (r *fakeSettlementRepo) CreateReward(record *models.RewardRecord) error {
	if r.failCreateReward != nil {
		return r.failCreateReward
	}
	if record.ID == "" {
		record.ID = nextID("reward")
	}
	if record.Status == "" {
		record.Status = models.RewardStatusPending
	}
	r.rewards[record.ID] = record
	r.pendingByOwner[record.OwnerID] += record.Amount
	// Как в реальном репозитории: база менеджерской записи накапливается
	// в объёме заработков партнёров его профиля.
	if record.Kind == models.RewardKindManager {
		if manager, ok := r.users.managerProfiles[record.OwnerID]; ok {
			manager.TotalPartnersEarnings += record.BaseAmount
		}
	}
	return nil
}

func (r *fakeSettlementRepo) FindReward(id string) (*models.RewardRecord, error) {
	record, ok := r.rewards[id]
	if !ok {
		return nil, repositories.ErrRewardNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *fakeSettlementRepo) ListRewardsByOwner(ownerID string, kind models.RewardKind) ([]models.RewardRecord, error) {
	var records []models.RewardRecord
	for _, record := range r.rewards {
		if record.OwnerID != ownerID {
			continue
		}
		if kind != "" && record.Kind != kind {
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

func (r *fakeSettlementRepo) ListRewardsByStatus(status models.RewardStatus, limit int) ([]models.RewardRecord, error) {
	var records []models.RewardRecord
	for _, record := range r.rewards {
		if record.Status == status {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (r *fakeSettlementRepo) Approve(id string, at time.Time) error {
	record, ok := r.rewards[id]
	if !ok {
		return repositories.ErrRewardNotFound
	}
	if record.IsTerminal() {
		return repositories.ErrRewardTerminal
	}
	if record.Status != models.RewardStatusPending {
		return repositories.ErrRewardWrongStatus
	}
	record.Status = models.RewardStatusApproved
	record.ApprovedAt = &at
	return nil
}

func (r *fakeSettlementRepo) MarkPaid(id string, externalRef string, at time.Time) error {
	record, ok := r.rewards[id]
	if !ok {
		return repositories.ErrRewardNotFound
	}
	if record.IsTerminal() {
		return repositories.ErrRewardTerminal
	}
	if record.Status != models.RewardStatusApproved {
		return repositories.ErrRewardWrongStatus
	}
	record.Status = models.RewardStatusPaid
	record.PaidAt = &at
	record.ExternalRef = externalRef
	r.pendingByOwner[record.OwnerID] -= record.Amount
	return nil
}

func (r *fakeSettlementRepo) Cancel(id string, at time.Time) error {
	record, ok := r.rewards[id]
	if !ok {
		return repositories.ErrRewardNotFound
	}
	if record.IsTerminal() {
		return repositories.ErrRewardTerminal
	}
	record.Status = models.RewardStatusCancelled
	record.CancelledAt = &at
	r.pendingByOwner[record.OwnerID] -= record.Amount
	return nil
}

func (r *fakeSettlementRepo) CreateCashback(tx *models.CashbackTransaction) error {
	if tx.TopUpID != nil {
		for _, existing := range r.cashbacks {
			if existing.TopUpID != nil && *existing.TopUpID == *tx.TopUpID {
				return errors.New("duplicate key value violates unique constraint")
			}
		}
	}
	if tx.ID == "" {
		tx.ID = nextID("cashback")
	}
	if tx.Status == "" {
		tx.Status = models.CashbackStatusPending
	}
	r.cashbacks[tx.ID] = tx
	return nil
}

func (r *fakeSettlementRepo) FindCashback(id string) (*models.CashbackTransaction, error) {
	cb, ok := r.cashbacks[id]
	if !ok {
		return nil, repositories.ErrCashbackNotFound
	}
	clone := *cb
	return &clone, nil
}

func (r *fakeSettlementRepo) ListCashbackByPartner(partnerID string) ([]models.CashbackTransaction, error) {
	var txs []models.CashbackTransaction
	for _, cb := range r.cashbacks {
		if cb.PartnerID == partnerID {
			txs = append(txs, *cb)
		}
	}
	return txs, nil
}

func (r *fakeSettlementRepo) ProcessCashback(id string, at time.Time) (*models.CashbackTransaction, error) {
	cb, ok := r.cashbacks[id]
	if !ok {
		return nil, repositories.ErrCashbackNotFound
	}
	if cb.Status != models.CashbackStatusPending {
		return nil, repositories.ErrCashbackNotPending
	}
	cb.Status = models.CashbackStatusProcessed
	cb.ProcessedAt = &at
	r.balanceByPartner[cb.PartnerID] += cb.Amount

	clone := *cb
	return &clone, nil
}

func (r *fakeSettlementRepo) CancelCashback(id string, at time.Time) (*models.CashbackTransaction, error) {
	cb, ok := r.cashbacks[id]
	if !ok {
		return nil, repositories.ErrCashbackNotFound
	}
	if cb.Status == models.CashbackStatusCancelled {
		return nil, repositories.ErrCashbackNotPending
	}
	if cb.Status == models.CashbackStatusProcessed {
		r.balanceByPartner[cb.PartnerID] -= cb.Amount
	}
	cb.Status = models.CashbackStatusCancelled
	cb.CancelledAt = &at

	clone := *cb
	return &clone, nil
}

// --- audit / notifications ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *fakeAuditRepo) Append(entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) AppendAction(orderID, stepID, actorID, action string, details map[string]interface{}) error {
	entry := models.AuditEntry{Action: action}
	if orderID != "" {
		entry.OrderID = &orderID
	}
	if stepID != "" {
		entry.StepID = &stepID
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByOrder(orderID string) ([]models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []models.AuditEntry
	for _, entry := range r.entries {
		if entry.OrderID != nil && *entry.OrderID == orderID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r *fakeAuditRepo) ListByStep(stepID string) ([]models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []models.AuditEntry
	for _, entry := range r.entries {
		if entry.StepID != nil && *entry.StepID == stepID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// actions возвращает действия журнала в порядке записи.
func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry.Action)
	}
	return result
}

// fakeNotificationRepo только считает отправки: уведомления шлются из
// горутин, поэтому мьютекс обязателен.
type fakeNotificationRepo struct {
	mu    sync.Mutex
	count int
}

func (r *fakeNotificationRepo) Create(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	return nil
}

func (r *fakeNotificationRepo) CreateOrderStatusNotification(userID, orderID, orderTitle string, status models.OrderStatus) error {
	return r.Create(nil)
}

func (r *fakeNotificationRepo) CreateResponseStatusNotification(userID, orderID, orderTitle string, status models.ResponseStatus) error {
	return r.Create(nil)
}

func (r *fakeNotificationRepo) CreateRewardNotification(userID string, amount float64, status models.RewardStatus) error {
	return r.Create(nil)
}

func (r *fakeNotificationRepo) ListByUser(userID string, unreadOnly bool) ([]models.Notification, error) {
	return nil, nil
}

func (r *fakeNotificationRepo) MarkRead(id string) error {
	return nil
}

// --- payments ---

type fakePaymentProvider struct {
	err   error
	calls int
}

func (p *fakePaymentProvider) Payout(ctx context.Context, recipientID string, amount float64, purpose string) (*payments.Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &payments.Result{ExternalRef: "ext-" + recipientID, Status: "succeeded"}, nil
}
