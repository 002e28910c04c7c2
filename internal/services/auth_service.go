package services

import (
	"fmt"

	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/auth"
	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/repositories"
	"masterplace_backend/internal/services/dto"

	"github.com/google/uuid"
)

type AuthService interface {
	// Register создаёт пользователя. Реферальный код, если указан и
	// действителен, привязывает пользователя к партнёру для кэшбека.
	Register(req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenManager
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenManager) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens}
}

func (s *authService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperrors.NewBadRequestError("email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.UserRole(req.Role),
		Status:       models.UserStatusActive,
		Name:         req.Name,
	}

	if req.ReferralCode != "" {
		partner, err := s.userRepo.FindPartnerByReferralCode(req.ReferralCode)
		if err == nil && partner.IsActive {
			user.ReferredByPartnerID = &partner.ID
		} else {
			// Невалидный код не блокирует регистрацию.
			logger.Warn("referral code not resolved", "code", req.ReferralCode)
		}
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	// Партнёрам и менеджерам профиль создаётся сразу при регистрации.
	switch user.Role {
	case models.UserRolePartner:
		err = s.userRepo.CreatePartnerProfile(&models.PartnerProfile{
			UserID:       user.ID,
			ReferralCode: fmt.Sprintf("ref-%s", uuid.NewString()[:8]),
			RewardType:   models.PartnerRewardTypePercentage,
			IsActive:     true,
		})
	case models.UserRoleManager:
		err = s.userRepo.CreateManagerProfile(&models.ManagerProfile{
			UserID:                user.ID,
			BaseCommissionPercent: 10,
		})
	}
	if err != nil {
		logger.Error("failed to create role profile", "user_id", user.ID, "error", err)
	}

	return s.issueToken(user)
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Status == models.UserStatusBanned || user.Status == models.UserStatusSuspended {
		return nil, apperrors.ErrForbidden
	}
	return s.issueToken(user)
}

func (s *authService) issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		Token:  token,
		UserID: user.ID,
		Role:   string(user.Role),
	}, nil
}
