// Package auth はJWTベースの認証（トークン発行・検証・ユーザー登録）を提供する。
package auth

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/tubuyaki/internal/model"
	"github.com/hitoshi/tubuyaki/internal/repository"
)

// トークン種別。リフレッシュトークンでのAPIアクセスを防ぐため、
// クレームに種別を埋め込み検証時に突き合わせる。
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// usernamePattern はusernameに許可する文字種。
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,30}$`)

// Claims はアクセストークン・リフレッシュトークン共通のJWTクレーム。
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Config は認証サービスの設定。
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service はトークン発行・検証とユーザー登録のドメインロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	config   Config
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, config Config) *Service {
	return &Service{
		userRepo: userRepo,
		config:   config,
	}
}

// Signup はユーザーを登録する。
// usernameは一意で、登録後に変更されることはない。
func (s *Service) Signup(ctx context.Context, username, password string) (*model.User, error) {
	if !usernamePattern.MatchString(username) {
		return nil, model.NewValidationError("username", "username must be 3-30 characters of letters, digits, '_', '.' or '-'")
	}
	if len(password) < 8 {
		return nil, model.NewValidationError("password", "password must be at least 8 characters")
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewValidationError("username", "username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	return user, nil
}

// IssueTokenPair はusername/passwordを検証し、アクセストークンとリフレッシュトークンを発行する。
// 認証情報が不正な場合はUnauthorizedエラーを返す。
func (s *Service) IssueTokenPair(ctx context.Context, username, password string) (access, refresh string, err error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", "", fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return "", "", model.NewUnauthorizedError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", model.NewUnauthorizedError()
	}

	access, err = s.sign(user, tokenTypeAccess, s.config.AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.sign(user, tokenTypeRefresh, s.config.RefreshTTL)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// Refresh は有効なリフレッシュトークンから新しいアクセストークンを発行する。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return "", model.NewUnauthorizedError()
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", model.NewUnauthorizedError()
	}

	// トークン発行後にユーザーが削除されている可能性があるため実在を確認する
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return "", model.NewUnauthorizedError()
	}

	return s.sign(user, tokenTypeAccess, s.config.AccessTTL)
}

// VerifyAccessToken はアクセストークンを検証し、呼び出し元のユーザーIDを返す。
// 不正・期限切れ・リフレッシュトークンの場合はエラーを返す。
func (s *Service) VerifyAccessToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != tokenTypeAccess {
		return "", fmt.Errorf("token is not an access token")
	}
	return claims.UserID, nil
}

// VerifyToken はトークン種別を問わず署名と有効期限を検証する。
// POST /v1/jwt/verify/ が使用する。
func (s *Service) VerifyToken(tokenString string) error {
	_, err := s.parse(tokenString)
	return err
}

// sign は指定ユーザー・種別・TTLでHS256署名済みトークンを生成する。
func (s *Service) sign(user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parse はトークンを解析・検証し、クレームを返す。
func (s *Service) parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
