package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Коды ошибок сгруппированные по доменам
const (
	// Жизненный цикл заказа и workflow
	CodeInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	CodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	CodeAlreadyFinal           ErrorCode = "ALREADY_FINAL"

	// Квоты и подписки
	CodeQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	CodeNoActiveTariff     ErrorCode = "NO_ACTIVE_TARIFF"
	CodeTariffDeniesAccess ErrorCode = "TARIFF_DENIES_ACCESS"

	// Расчёты
	CodeSettlementFailed ErrorCode = "SETTLEMENT_FAILED"
	CodeRecordImmutable  ErrorCode = "RECORD_IMMUTABLE"

	// Ресурсы
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeOrderNotFound    ErrorCode = "ORDER_NOT_FOUND"
	CodeResponseNotFound ErrorCode = "RESPONSE_NOT_FOUND"
	CodeStepNotFound     ErrorCode = "STEP_NOT_FOUND"
	CodeUserNotFound     ErrorCode = "USER_NOT_FOUND"

	// Валидация
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Аутентификация и авторизация
	CodeUnauthorized            ErrorCode = "UNAUTHORIZED"
	CodeForbidden               ErrorCode = "FORBIDDEN"
	CodeInvalidToken            ErrorCode = "INVALID_TOKEN"
	CodeInvalidCredentials      ErrorCode = "INVALID_CREDENTIALS"
	CodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"

	// Системные ошибки
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
)
