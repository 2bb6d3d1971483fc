package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/tubuyaki/internal/middleware"
	"github.com/hitoshi/tubuyaki/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Signup はユーザーを登録する。
	Signup(ctx context.Context, username, password string) (*model.User, error)
	// IssueTokenPair はusername/passwordを検証し、アクセス・リフレッシュトークンを発行する。
	IssueTokenPair(ctx context.Context, username, password string) (access, refresh string, err error)
	// Refresh はリフレッシュトークンから新しいアクセストークンを発行する。
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// VerifyToken はトークンの署名と有効期限を検証する。
	VerifyToken(tokenString string) error
}

// UserFinder はユーザー取得のための最小インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	// FindByID はIDでユーザーを取得する。見つからない場合は(nil, nil)を返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler はユーザー登録とJWT発行・検証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	users   UserFinder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, users UserFinder) *AuthHandler {
	return &AuthHandler{
		service: service,
		users:   users,
	}
}

// credentialsRequest はユーザー登録・トークン発行リクエストのボディ。
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// signupResponse はユーザー登録のAPIレスポンス。パスワード関連は含めない。
type signupResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// tokenPairResponse はトークン発行のAPIレスポンス。
type tokenPairResponse struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// refreshRequest はトークン更新リクエストのボディ。
type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// accessTokenResponse はトークン更新のAPIレスポンス。
type accessTokenResponse struct {
	Access string `json:"access"`
}

// verifyRequest はトークン検証リクエストのボディ。
type verifyRequest struct {
	Token string `json:"token"`
}

// Signup はユーザーを登録する。
// POST /v1/users/
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	user, err := h.service.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(signupResponse{ID: user.ID, Username: user.Username})
}

// CreateTokenPair はusername/passwordからトークンペアを発行する。
// POST /v1/jwt/create/
func (h *AuthHandler) CreateTokenPair(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	access, refresh, err := h.service.IssueTokenPair(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenPairResponse{Refresh: refresh, Access: access})
}

// RefreshToken はリフレッシュトークンから新しいアクセストークンを発行する。
// POST /v1/jwt/refresh/
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	access, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accessTokenResponse{Access: access})
}

// VerifyToken はトークンの有効性を検証する。有効なら空のJSONオブジェクトを返す。
// POST /v1/jwt/verify/
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if err := h.service.VerifyToken(req.Token); err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct{}{})
}

// Me は認証済み呼び出し元自身の情報を返す。
// GET /v1/users/me/
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signupResponse{ID: user.ID, Username: user.Username})
}
