package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/usecase"
)

const (
	// DefaultCreditsURL 原始資料的收入清單
	DefaultCreditsURL = "https://johnnylaicode.github.io/api/credits.json"
	// DefaultDebitsURL 原始資料的支出清單
	DefaultDebitsURL = "https://johnnylaicode.github.io/api/debits.json"
	// DefaultTimeout 單次請求逾時
	DefaultTimeout = 30 * time.Second
)

// Config 遠端 JSON 資料來源設定
type Config struct {
	CreditsURL string
	DebitsURL  string
	Timeout    time.Duration // Default: 30 seconds
}

// Source 透過 HTTP GET 讀取兩份 JSON 陣列
type Source struct {
	httpClient *http.Client
	creditsURL string
	debitsURL  string
}

// NewSource 建立 HTTP 資料來源，空白欄位使用預設值
func NewSource(cfg Config) *Source {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if cfg.CreditsURL == "" {
		cfg.CreditsURL = DefaultCreditsURL
	}
	if cfg.DebitsURL == "" {
		cfg.DebitsURL = DefaultDebitsURL
	}
	return &Source{
		httpClient: &http.Client{Timeout: timeout},
		creditsURL: cfg.CreditsURL,
		debitsURL:  cfg.DebitsURL,
	}
}

// FetchCredits 讀取收入清單
func (s *Source) FetchCredits(ctx context.Context) ([]domain.Transaction, error) {
	return s.fetch(ctx, "credits", s.creditsURL)
}

// FetchDebits 讀取支出清單
func (s *Source) FetchDebits(ctx context.Context) ([]domain.Transaction, error) {
	return s.fetch(ctx, "debits", s.debitsURL)
}

// fetch 取得並解析一份清單，任何失敗都包成 FetchError
func (s *Source) fetch(ctx context.Context, resource, addr string) ([]domain.Transaction, error) {
	list, err := s.get(ctx, addr)
	if err != nil {
		return nil, &domain.FetchError{Resource: resource, Err: err}
	}
	return list, nil
}

func (s *Source) get(ctx context.Context, addr string) ([]domain.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cannot GET %s: %s: %s", addr, resp.Status, body)
	}

	var list []domain.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if list == nil {
		list = []domain.Transaction{}
	}
	return list, nil
}

var _ usecase.Source = (*Source)(nil)
