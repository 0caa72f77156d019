// Package gemini はGoogle Gemini APIを使用したブランド分析クライアントを提供します。
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"inimage_backend/internal/feature/insights/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// Config はGemini APIへの接続設定です。
// APIKey が空の場合はVertex AI（ADC）を使用し、Project と Location が必要です。
type Config struct {
	APIKey   string
	Project  string
	Location string
	Model    string
	// HTTPClient は通信に使用するクライアントです。nilの場合はライブラリの既定値を使います。
	HTTPClient *http.Client
}

// ClientConfig はConfigをgenaiのクライアント設定に変換します。
func (c Config) ClientConfig() *genai.ClientConfig {
	cc := &genai.ClientConfig{HTTPClient: c.HTTPClient}
	if c.APIKey != "" {
		cc.APIKey = c.APIKey
		cc.Backend = genai.BackendGeminiAPI
		return cc
	}
	cc.Backend = genai.BackendVertexAI
	cc.Project = c.Project
	cc.Location = c.Location
	return cc
}

// GeminiAnalyzer はGoogle Gemini APIを使用してブランド分析を生成します。
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// GeminiAnalyzerがBrandAnalyzerを実装していることをコンパイル時に検証します。
var _ usecase.BrandAnalyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer はGeminiAnalyzerの新しいインスタンスを生成します。
func NewGeminiAnalyzer(ctx context.Context, cfg Config) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &GeminiAnalyzer{client: client, model: model}, nil
}

// Analyze はプロンプトを使用して分析サマリーを生成します。
func (g *GeminiAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini API returned an empty response")
	}
	return text, nil
}
