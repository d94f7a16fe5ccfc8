package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/repository"
	"adminplus/admin-service/internal/app/admin/util"

	"github.com/google/uuid"
)

const captchaCodeLength = 4

// CaptchaService проверяет одноразовые капчи из общего хранилища
type CaptchaService struct {
	repo repository.CaptchaRepository
	ttl  time.Duration
}

func NewCaptchaService(repo repository.CaptchaRepository, ttl time.Duration) *CaptchaService {
	return &CaptchaService{repo: repo, ttl: ttl}
}

// Verify потребляет запись капчи: повторная проверка того же id вернет ErrCaptchaExpired
func (s *CaptchaService) Verify(ctx context.Context, id, code string) error {
	if strings.TrimSpace(id) == "" {
		return ErrCaptchaExpired
	}

	expected, found, err := s.repo.Take(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to take captcha: %w", err)
	}
	if !found {
		return ErrCaptchaExpired
	}
	if !strings.EqualFold(strings.TrimSpace(code), expected) {
		return ErrCaptchaMismatch
	}
	return nil
}

// Issue создает капчу. Используется только в режиме разработки.
func (s *CaptchaService) Issue(ctx context.Context) (*entity.CaptchaResponse, error) {
	code, err := util.GenerateNumericCode(captchaCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate captcha: %w", err)
	}

	id := uuid.NewString()
	if err := s.repo.Save(ctx, id, code, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save captcha: %w", err)
	}

	return &entity.CaptchaResponse{
		CaptchaID: id,
		Code:      code,
		ExpiresIn: int64(s.ttl.Seconds()),
	}, nil
}
