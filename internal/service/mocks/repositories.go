package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/repository"
)

// checkText rejects values a PostgreSQL text parameter would reject
func checkText(values ...string) error {
	for _, v := range values {
		if !utf8.ValidString(v) || strings.ContainsRune(v, 0) {
			return fmt.Errorf("%w: invalid byte sequence for encoding UTF8: %q", repository.ErrInvalidData, v)
		}
	}
	return nil
}

// MockShortURLRepository implements repository.ShortURLRepository for testing
type MockShortURLRepository struct {
	mu     sync.RWMutex
	byCode map[string]*models.ShortURL
	ids    map[string]struct{}

	// CreateErrs are returned by successive Create calls before the real insert runs
	CreateErrs []error
	// GetErr, when set, is returned by every GetByCode call
	GetErr  error
	Creates int
}

func NewMockShortURLRepository() *MockShortURLRepository {
	return &MockShortURLRepository{
		byCode: make(map[string]*models.ShortURL),
		ids:    make(map[string]struct{}),
	}
}

func (m *MockShortURLRepository) Create(ctx context.Context, shortURL *models.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Creates++
	if len(m.CreateErrs) > 0 {
		err := m.CreateErrs[0]
		m.CreateErrs = m.CreateErrs[1:]
		if err != nil {
			return err
		}
	}

	if err := checkText(shortURL.ID, shortURL.Code, shortURL.URL); err != nil {
		return err
	}
	if _, exists := m.byCode[shortURL.Code]; exists {
		return repository.ErrConflict
	}
	if _, exists := m.ids[shortURL.ID]; exists {
		return repository.ErrConflict
	}

	stored := *shortURL
	m.byCode[shortURL.Code] = &stored
	m.ids[shortURL.ID] = struct{}{}
	return nil
}

func (m *MockShortURLRepository) GetByCode(ctx context.Context, code string) (*models.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if err := checkText(code); err != nil {
		return nil, err
	}

	shortURL, exists := m.byCode[code]
	if !exists {
		return nil, repository.ErrNotFound
	}
	found := *shortURL
	return &found, nil
}

// Put stores a row directly, bypassing conflict checks
func (m *MockShortURLRepository) Put(shortURL models.ShortURL) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCode[shortURL.Code] = &shortURL
	m.ids[shortURL.ID] = struct{}{}
}

func (m *MockShortURLRepository) codeByID(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for code, row := range m.byCode {
		if row.ID == id {
			return code, true
		}
	}
	return "", false
}

// MockClickRepository implements repository.ClickRepository for testing.
// FindByCodes joins against the given short url repository.
type MockClickRepository struct {
	mu     sync.RWMutex
	urls   *MockShortURLRepository
	clicks []models.Click
	ids    map[string]struct{}

	// CreateErrs are returned by successive Create calls before the real insert runs
	CreateErrs []error
	FindErr    error
	Creates    int
}

func NewMockClickRepository(urls *MockShortURLRepository) *MockClickRepository {
	return &MockClickRepository{
		urls: urls,
		ids:  make(map[string]struct{}),
	}
}

func (m *MockClickRepository) Create(ctx context.Context, click *models.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Creates++
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(m.CreateErrs) > 0 {
		err := m.CreateErrs[0]
		m.CreateErrs = m.CreateErrs[1:]
		if err != nil {
			return err
		}
	}

	if err := checkText(click.ID, click.ShortURLID, click.Addr, click.Referrer, click.Agent); err != nil {
		return err
	}
	if _, exists := m.ids[click.ID]; exists {
		return nil
	}
	m.ids[click.ID] = struct{}{}
	m.clicks = append(m.clicks, *click)
	return nil
}

func (m *MockClickRepository) FindByCodes(ctx context.Context, codes []string) ([]models.CodedClick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if err := checkText(codes...); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		wanted[code] = struct{}{}
	}

	var rows []models.CodedClick
	for _, click := range m.clicks {
		code, ok := m.urls.codeByID(click.ShortURLID)
		if !ok {
			continue
		}
		if _, ok := wanted[code]; !ok {
			continue
		}
		rows = append(rows, models.CodedClick{Code: code, Click: click})
	}
	return rows, nil
}

// Clicks returns a copy of the recorded clicks in insertion order
func (m *MockClickRepository) Clicks() []models.Click {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Click, len(m.clicks))
	copy(out, m.clicks)
	return out
}

// WaitForClicks polls until at least n clicks are stored or the timeout expires
func (m *MockClickRepository) WaitForClicks(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(m.Clicks()) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return len(m.Clicks()) >= n
}

// MockReporter collects reported failures
type MockReporter struct {
	mu     sync.Mutex
	Errors []error
}

func (m *MockReporter) Report(ctx context.Context, err error, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, err)
}

func (m *MockReporter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Errors)
}
