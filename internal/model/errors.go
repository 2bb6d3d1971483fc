// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// バリデーションエラーの場合はFieldに対象フィールド名を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, permission, validation, resource, system
	Action   string // ユーザー向け対処方法
	Field    string // バリデーション対象フィールド（該当する場合のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodePostNotFound    = "POST_NOT_FOUND"
	ErrCodeCommentNotFound = "COMMENT_NOT_FOUND"
	ErrCodeGroupNotFound   = "GROUP_NOT_FOUND"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeRateLimited     = "RATE_LIMITED"
)

// NewUnauthorizedError は認証が必要なエンドポイントへの未認証アクセスエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "authentication credentials were not provided or are invalid",
		Category: "auth",
		Action:   "obtain a token and pass it in the Authorization header",
	}
}

// NewForbiddenError は著者以外による書き込み操作のエラーを生成する。
// reasonはそのまま呼び出し元に表示される。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  reason,
		Category: "permission",
		Action:   "only the author may modify this object",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("post not found: %s", postID),
		Category: "resource",
		Action:   "check the post id",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("comment not found: %s", commentID),
		Category: "resource",
		Action:   "check the comment id",
	}
}

// NewGroupNotFoundError はグループ未検出エラーを生成する。
func NewGroupNotFoundError(groupID string) *APIError {
	return &APIError{
		Code:     ErrCodeGroupNotFound,
		Message:  fmt.Sprintf("group not found: %s", groupID),
		Category: "resource",
		Action:   "check the group id",
	}
}

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "fix the request body and retry",
		Field:    field,
	}
}

// NewFollowTargetNotFoundError はフォロー対象ユーザーが存在しない場合のエラーを生成する。
func NewFollowTargetNotFoundError() *APIError {
	return NewValidationError("following", "target user not found")
}

// NewSelfFollowError は自己フォローのバリデーションエラーを生成する。
func NewSelfFollowError() *APIError {
	return NewValidationError("following", "cannot follow yourself")
}

// NewAlreadyFollowingError は重複フォローのバリデーションエラーを生成する。
func NewAlreadyFollowingError() *APIError {
	return NewValidationError("following", "already following this user")
}

// NewInvalidRequestError はリクエストボディ解析失敗のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "failed to parse request body",
		Category: "validation",
		Action:   "send a well-formed JSON body",
	}
}
