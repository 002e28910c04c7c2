package models

type UserStatus string
type UserRole string
type StepStatus string
type RewardKind string
type RewardStatus string
type CashbackStatus string
type EscrowStatus string
type ReviewRole string
type QuotaKind string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"

	UserRoleCustomer UserRole = "customer"
	UserRoleExecutor UserRole = "executor"
	UserRoleMediator UserRole = "mediator"
	UserRoleManager  UserRole = "manager"
	UserRolePartner  UserRole = "partner"
	UserRoleAdmin    UserRole = "admin"

	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusArchived  StepStatus = "archived"
	StepStatusReturned  StepStatus = "returned"

	RewardKindManager  RewardKind = "manager"
	RewardKindPartner  RewardKind = "partner"
	RewardKindMediator RewardKind = "mediator"

	RewardStatusPending   RewardStatus = "pending"
	RewardStatusApproved  RewardStatus = "approved"
	RewardStatusPaid      RewardStatus = "paid"
	RewardStatusCancelled RewardStatus = "cancelled"

	CashbackStatusPending   CashbackStatus = "pending"
	CashbackStatusProcessed CashbackStatus = "processed"
	CashbackStatusCancelled CashbackStatus = "cancelled"

	EscrowStatusNone     EscrowStatus = "none"
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"

	ReviewRoleExecutor ReviewRole = "executor"
	ReviewRoleCustomer ReviewRole = "customer"

	QuotaKindOrders   QuotaKind = "orders"
	QuotaKindContacts QuotaKind = "contacts"
)

// OrderStatus — числовые коды статусов заказа, совпадают с кодами мобильного API.
type OrderStatus int

const (
	OrderStatusSearching            OrderStatus = 0
	OrderStatusCancelled            OrderStatus = 1
	OrderStatusSelectingExecutor    OrderStatus = 2
	OrderStatusExecutorSelected     OrderStatus = 3
	OrderStatusInWork               OrderStatus = 4
	OrderStatusAwaitingConfirmation OrderStatus = 5
	OrderStatusRejected             OrderStatus = 6
	OrderStatusClosed               OrderStatus = 7
	OrderStatusCompleted            OrderStatus = 8

	// Статусы заказа, который ведёт посредник.
	OrderStatusMediatorClarify      OrderStatus = 10
	OrderStatusMediatorFindExecutor OrderStatus = 11
	OrderStatusMediatorExecute      OrderStatus = 12
	OrderStatusMediatorArchived     OrderStatus = 13
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusSearching:
		return "searching"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusSelectingExecutor:
		return "selecting_executor"
	case OrderStatusExecutorSelected:
		return "executor_selected"
	case OrderStatusInWork:
		return "in_work"
	case OrderStatusAwaitingConfirmation:
		return "awaiting_confirmation"
	case OrderStatusRejected:
		return "rejected"
	case OrderStatusClosed:
		return "closed"
	case OrderStatusCompleted:
		return "completed"
	case OrderStatusMediatorClarify:
		return "mediator_clarify"
	case OrderStatusMediatorFindExecutor:
		return "mediator_find_executor"
	case OrderStatusMediatorExecute:
		return "mediator_execute"
	case OrderStatusMediatorArchived:
		return "mediator_archived"
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is allowed from s.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusRejected, OrderStatusClosed,
		OrderStatusCompleted, OrderStatusMediatorArchived:
		return true
	}
	return false
}

// IsMediatorTrack reports whether the order is currently driven by a mediator.
func (s OrderStatus) IsMediatorTrack() bool {
	return s >= OrderStatusMediatorClarify && s <= OrderStatusMediatorArchived
}

// orderTransitions — допустимые переходы по "прямому" треку заказчик/исполнитель.
// Переходы посреднического трека валидируются пошаговым workflow отдельно.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusSearching: {
		OrderStatusCancelled,
		OrderStatusSelectingExecutor,
		OrderStatusMediatorClarify,
	},
	OrderStatusSelectingExecutor: {
		OrderStatusCancelled,
		OrderStatusSearching,
		OrderStatusExecutorSelected,
	},
	OrderStatusExecutorSelected: {
		OrderStatusCancelled,
		OrderStatusSearching,
		OrderStatusInWork,
	},
	OrderStatusInWork: {
		OrderStatusAwaitingConfirmation,
		OrderStatusRejected,
	},
	OrderStatusAwaitingConfirmation: {
		OrderStatusCompleted,
		OrderStatusInWork,
	},
	OrderStatusMediatorClarify: {
		OrderStatusMediatorFindExecutor,
		OrderStatusMediatorArchived,
		OrderStatusSearching,
	},
	OrderStatusMediatorFindExecutor: {
		OrderStatusMediatorExecute,
		OrderStatusMediatorArchived,
		OrderStatusSearching,
	},
	OrderStatusMediatorExecute: {
		OrderStatusCompleted,
		OrderStatusRejected,
		OrderStatusMediatorArchived,
		OrderStatusSearching,
	},
}

// CanTransition reports whether from→to is a legal order transition.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ResponseStatus — числовые коды статусов отклика исполнителя.
type ResponseStatus int

const (
	ResponseStatusSent                    ResponseStatus = 0
	ResponseStatusRejected                ResponseStatus = 1
	ResponseStatusContactExchanged        ResponseStatus = 2
	ResponseStatusContactOpenedByExecutor ResponseStatus = 3
	ResponseStatusOrderReceived           ResponseStatus = 4
	ResponseStatusTakenIntoWork           ResponseStatus = 5
)

func (s ResponseStatus) String() string {
	switch s {
	case ResponseStatusSent:
		return "sent"
	case ResponseStatusRejected:
		return "rejected"
	case ResponseStatusContactExchanged:
		return "contact_exchanged"
	case ResponseStatusContactOpenedByExecutor:
		return "contact_opened_by_executor"
	case ResponseStatusOrderReceived:
		return "order_received"
	case ResponseStatusTakenIntoWork:
		return "taken_into_work"
	}
	return "unknown"
}

// IsActive reports whether the response still competes for the order.
func (s ResponseStatus) IsActive() bool {
	return s != ResponseStatusRejected
}

var responseTransitions = map[ResponseStatus][]ResponseStatus{
	ResponseStatusSent: {
		ResponseStatusRejected,
		ResponseStatusContactExchanged,
		ResponseStatusTakenIntoWork,
	},
	ResponseStatusContactExchanged: {
		ResponseStatusRejected,
		ResponseStatusContactOpenedByExecutor,
		ResponseStatusOrderReceived,
		ResponseStatusTakenIntoWork,
	},
	ResponseStatusContactOpenedByExecutor: {
		ResponseStatusRejected,
		ResponseStatusOrderReceived,
		ResponseStatusTakenIntoWork,
	},
	ResponseStatusOrderReceived: {
		ResponseStatusRejected,
		ResponseStatusTakenIntoWork,
	},
}

// CanTransition reports whether from→to is a legal response transition.
func (s ResponseStatus) CanTransition(to ResponseStatus) bool {
	for _, next := range responseTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidRewardStatuses — для кастомных правил валидатора.
var ValidRewardStatuses = map[RewardStatus]struct{}{
	RewardStatusPending:   {},
	RewardStatusApproved:  {},
	RewardStatusPaid:      {},
	RewardStatusCancelled: {},
}

var ValidRewardKinds = map[RewardKind]struct{}{
	RewardKindManager:  {},
	RewardKindPartner:  {},
	RewardKindMediator: {},
}

var ValidReviewRoles = map[ReviewRole]struct{}{
	ReviewRoleExecutor: {},
	ReviewRoleCustomer: {},
}

var ValidUserRoles = map[UserRole]struct{}{
	UserRoleCustomer: {},
	UserRoleExecutor: {},
	UserRoleMediator: {},
	UserRoleManager:  {},
	UserRolePartner:  {},
	UserRoleAdmin:    {},
}
