package validator

import (
	"log"

	"masterplace_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует кастомные правила валидации.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка регистрации правила — ошибка времени запуска.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-review-role", validateReviewRole)
	mustRegister("is-reward-kind", validateRewardKind)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустые значения покрывает 'required'
	}
	_, ok := models.ValidUserRoles[models.UserRole(value)]
	return ok
}

func validateReviewRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.ValidReviewRoles[models.ReviewRole(value)]
	return ok
}

func validateRewardKind(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.ValidRewardKinds[models.RewardKind(value)]
	return ok
}
