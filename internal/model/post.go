// Package model はドメインモデルを定義する。
package model

import "time"

// Post は投稿を表す。
// 著者（AuthorID）はサーバー側で認証済み呼び出し元から設定され、
// クライアント入力から設定されることはない。
type Post struct {
	ID       string
	AuthorID string
	Text     string
	PubDate  time.Time
	GroupID  *string
	Image    *string
}

// Comment は投稿に対するコメントを表す。
// 親投稿（PostID）はURLパスから解決され、クライアント入力からは設定されない。
type Comment struct {
	ID       string
	AuthorID string
	PostID   string
	Text     string
	Created  time.Time
}

// Group は投稿の所属先グループを表す。
// このAPIからは読み取り専用で、管理ツール側で管理される静的な参照データ。
type Group struct {
	ID          string
	Title       string
	Slug        string
	Description string
}
