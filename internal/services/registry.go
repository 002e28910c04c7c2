package services

// ServiceContainer собирает все сервисы приложения для передачи в хендлеры.
type ServiceContainer struct {
	Auth         AuthService
	Order        OrderService
	Response     ResponseService
	Mediator     MediatorService
	Subscription SubscriptionService
	Settlement   SettlementService
	Review       ReviewService
}
