// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// usernameは一意で、作成後に変更されることはない。
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
