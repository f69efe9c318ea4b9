// Package view はハンドラーが生成する描画指示と、その既定のレンダラーを提供する。
//
// コアはビュー名とデータバッグの組を出力するだけで、HTMLの組み立ては
// コアの管理外にあるテンプレート層の責務とする。既定実装のJSONRendererは
// 描画指示をそのままJSONで返し、外部フロントエンドがビューを解決する。
package view

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Result はハンドラーからビュー層へ渡す描画指示。
type Result struct {
	View string         `json:"view"`
	Data map[string]any `json:"data"`
}

// Renderer は描画指示をHTTPレスポンスへ書き出すインターフェース。
type Renderer interface {
	Render(w http.ResponseWriter, statusCode int, result Result)
}

// JSONRenderer は描画指示をJSONとして返す既定のレンダラー。
type JSONRenderer struct{}

// NewJSONRenderer はJSONRendererを生成する。
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render は描画指示をJSONで書き出す。
func (r *JSONRenderer) Render(w http.ResponseWriter, statusCode int, result Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("failed to render view result",
			slog.String("view", result.View),
			slog.String("error", err.Error()),
		)
	}
}

// compile-time interface check
var _ Renderer = (*JSONRenderer)(nil)
