// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService は投稿・コメント本文のユーザー入力をサニタイズし、
// 保存したテキストが後段のクライアントでXSSとして解釈されるリスクを防ぐ。
// bluemondayのStrictPolicyを使用し、HTMLタグを一切許可しない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はプレーンテキストのサニタイズ機能のインターフェースを定義する。
// 投稿・コメントの本文保存前に使用される。
type TextSanitizerService interface {
	// Sanitize は入力からHTMLタグをすべて除去し、前後の空白を落としたテキストを返す。
	// 本文はプレーンテキストとして扱うため、許可タグは存在しない。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）をそのまま使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグをすべて除去し、前後の空白を落としたテキストを返す。
// StrictPolicyはタグ除去後のテキストをHTMLエスケープして返すため、
// プレーンテキストとして保存できるようアンエスケープしてから返す。
func (s *textSanitizer) Sanitize(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
