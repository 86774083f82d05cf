package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/SergeiKhy/shorturl/internal/idgen"
	"github.com/SergeiKhy/shorturl/internal/metrics"
	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/repository"
	"github.com/mssola/useragent"
)

// MaxAnalyticsCodes верхняя граница кодов в одном запросе
const MaxAnalyticsCodes = 100

// AnalyticsService группирует клики по кодам
type AnalyticsService interface {
	Analytics(ctx context.Context, codes []string) (models.AnalyticsResult, error)
}

type analyticsService struct {
	clickRepo repository.ClickRepository
}

func NewAnalyticsService(clickRepo repository.ClickRepository) AnalyticsService {
	return &analyticsService{clickRepo: clickRepo}
}

// Analytics возвращает клики по каждому коду в порядке хранилища.
// Код без кликов в результат не попадает.
func (s *analyticsService) Analytics(ctx context.Context, codes []string) (models.AnalyticsResult, error) {
	codes = normalizeCodes(codes)
	if len(codes) == 0 {
		return nil, ErrEmptyCodes
	}
	if len(codes) > MaxAnalyticsCodes {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyCodes, len(codes), MaxAnalyticsCodes)
	}
	metrics.AnalyticsCodes.Observe(float64(len(codes)))

	// Коды вне алфавита не выдавались и кликов иметь не могут
	codes = slices.DeleteFunc(codes, func(code string) bool { return !idgen.ValidCode(code) })
	if len(codes) == 0 {
		return models.AnalyticsResult{}, nil
	}

	rows, err := s.clickRepo.FindByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	result := make(models.AnalyticsResult)
	for _, row := range rows {
		result[row.Code] = append(result[row.Code], toClickView(row.Click))
	}

	return result, nil
}

// normalizeCodes убирает пустые и повторяющиеся коды, сохраняя порядок
func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func toClickView(click models.Click) models.ClickView {
	view := models.ClickView{
		Time:     click.Time,
		Addr:     click.Addr,
		Referrer: click.Referrer,
		Agent:    click.Agent,
	}
	view.Browser, view.OS, view.Device = parseUserAgent(click.Agent)
	return view
}

// parseUserAgent браузер, ОС и тип устройства. Для пустого агента всё пустое.
func parseUserAgent(agent string) (browser, os, device string) {
	if agent == "" {
		return "", "", ""
	}

	ua := useragent.New(agent)
	browser, _ = ua.Browser()
	os = ua.OS()

	switch {
	case ua.Bot():
		device = "Bot"
	case ua.Mobile():
		device = "Mobile"
	default:
		device = "Desktop"
	}

	return browser, os, device
}
