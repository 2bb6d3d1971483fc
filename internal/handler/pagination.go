package handler

import (
	"fmt"
	"net/http"
	"strconv"
)

// paginationParams はlimit/offsetクエリパラメータの解析結果。
type paginationParams struct {
	Limit  int
	Offset int
}

// paginatedResponse はページネーション付き一覧のレスポンスエンベロープ。
type paginatedResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// parsePaginationParams はクエリ文字列からlimit/offsetを解析する。
// 解析不能・負値のパラメータはエラーにせずデフォルト値に落とす。
// limitはmaxLimitを上限とする。
func parsePaginationParams(r *http.Request, defaultLimit, maxLimit int) paginationParams {
	params := paginationParams{Limit: defaultLimit, Offset: 0}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			params.Limit = v
		}
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			params.Offset = v
		}
	}

	return params
}

// newPaginatedResponse はエンベロープを組み立てる。
// next/previousは同一エンドポイントへの絶対URLで、範囲外の場合はnullになる。
func newPaginatedResponse(r *http.Request, params paginationParams, count int, results any) paginatedResponse {
	resp := paginatedResponse{
		Count:   count,
		Results: results,
	}

	if params.Offset+params.Limit < count {
		next := buildPageLink(r, params.Limit, params.Offset+params.Limit)
		resp.Next = &next
	}

	if params.Offset > 0 {
		prevOffset := params.Offset - params.Limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := buildPageLink(r, params.Limit, prevOffset)
		resp.Previous = &prev
	}

	return resp
}

// buildPageLink はリクエストと同じエンドポイントを指す絶対URLを生成する。
// offsetが0の場合はoffsetパラメータを省略する。
func buildPageLink(r *http.Request, limit, offset int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	if offset == 0 {
		return fmt.Sprintf("%s://%s%s?limit=%d", scheme, r.Host, r.URL.Path, limit)
	}
	return fmt.Sprintf("%s://%s%s?limit=%d&offset=%d", scheme, r.Host, r.URL.Path, limit, offset)
}
