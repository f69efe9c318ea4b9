// Package user はユーザー登録とプロフィール参照のビジネスロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/cinelog/internal/model"
	"github.com/hitoshi/cinelog/internal/repository"
)

// minPasswordLength はサインアップ時に要求するパスワードの最小長。
const minPasswordLength = 8

// Service はユーザー登録に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Signup は新規ユーザーを作成する。
// パスワードはbcryptでハッシュ化して保存し、平文は永続化しない。
// 事前の存在チェックに加えて、emailの一意制約違反もDuplicateUserへ変換する。
// 同時サインアップの競合はストア側の制約で検出される。
func (s *Service) Signup(ctx context.Context, email, name, password string) (*model.User, error) {
	if err := validateSignup(email, name, password); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, model.NewDuplicateUserError(email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	newUser := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateUserError(email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("email", newUser.Email),
		slog.String("name", newUser.Name),
	)

	return newUser, nil
}

// ListProfiles はランディングページ用に全ユーザーのnameとemailを返す。
func (s *Service) ListProfiles(ctx context.Context) ([]model.UserProfile, error) {
	profiles, err := s.userRepo.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// validateSignup はサインアップ入力の形式を検証する。
func validateSignup(email, name, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return model.NewInvalidRequestError("メールアドレスの形式が正しくありません")
	}
	if strings.TrimSpace(name) == "" {
		return model.NewInvalidRequestError("名前を入力してください")
	}
	if len(password) < minPasswordLength {
		return model.NewInvalidRequestError(
			fmt.Sprintf("パスワードは%d文字以上で入力してください", minPasswordLength))
	}
	return nil
}
