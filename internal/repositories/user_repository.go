package repositories

import (
	"errors"

	"masterplace_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrManagerProfileNotFound = errors.New("manager profile not found")
	ErrPartnerProfileNotFound = errors.New("partner profile not found")
)

type UserRepository interface {
	Create(user *models.User) error
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(user *models.User) error

	CreateManagerProfile(profile *models.ManagerProfile) error
	FindManagerProfile(userID string) (*models.ManagerProfile, error)
	CreatePartnerProfile(profile *models.PartnerProfile) error
	FindPartnerProfile(userID string) (*models.PartnerProfile, error)
	FindPartnerProfileByID(id string) (*models.PartnerProfile, error)
	FindPartnerByReferralCode(code string) (*models.PartnerProfile, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Tariff").Preload("NextTariff").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	result := r.db.Save(user)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) CreateManagerProfile(profile *models.ManagerProfile) error {
	return r.db.Create(profile).Error
}

func (r *userRepository) FindManagerProfile(userID string) (*models.ManagerProfile, error) {
	var profile models.ManagerProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrManagerProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// CreatePartnerProfile создаёт профиль партнёра и в той же транзакции
// обновляет счётчики партнёров у его менеджера.
func (r *userRepository) CreatePartnerProfile(profile *models.PartnerProfile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		if profile.ManagerID == nil {
			return nil
		}
		updates := map[string]interface{}{
			"total_partners": gorm.Expr("total_partners + 1"),
		}
		if profile.IsActive {
			updates["active_partners"] = gorm.Expr("active_partners + 1")
		}
		return tx.Model(&models.ManagerProfile{}).
			Where("user_id = ?", *profile.ManagerID).Updates(updates).Error
	})
}

func (r *userRepository) FindPartnerProfile(userID string) (*models.PartnerProfile, error) {
	var profile models.PartnerProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartnerProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) FindPartnerProfileByID(id string) (*models.PartnerProfile, error) {
	var profile models.PartnerProfile
	err := r.db.First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartnerProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) FindPartnerByReferralCode(code string) (*models.PartnerProfile, error) {
	var profile models.PartnerProfile
	err := r.db.Where("referral_code = ?", code).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartnerProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}
