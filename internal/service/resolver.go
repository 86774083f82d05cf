package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SergeiKhy/shorturl/internal/idgen"
	"github.com/SergeiKhy/shorturl/internal/metrics"
	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/repository"
)

// Resolver превращает код в адрес назначения и фиксирует клик
type Resolver interface {
	Resolve(ctx context.Context, code string, meta models.ClickMeta) (string, error)
}

type resolver struct {
	shortURLRepo repository.ShortURLRepository
	clicks       ClickRecorder
	ids          IDGenerator
	now          func() time.Time
}

func NewResolver(
	shortURLRepo repository.ShortURLRepository,
	clicks ClickRecorder,
	ids IDGenerator,
) Resolver {
	if ids == nil {
		ids = &idgen.Generator{}
	}
	return &resolver{
		shortURLRepo: shortURLRepo,
		clicks:       clicks,
		ids:          ids,
		now:          time.Now,
	}
}

// Resolve возвращает ErrLinkNotFound для неизвестного кода.
// Ошибка записи клика не отменяет редирект.
func (r *resolver) Resolve(ctx context.Context, code string, meta models.ClickMeta) (string, error) {
	// Строка вне алфавита кодов не может быть выданным кодом
	if !idgen.ValidCode(code) {
		metrics.Redirects.WithLabelValues(metrics.RedirectNotFound).Inc()
		return "", ErrLinkNotFound
	}

	shortURL, err := r.shortURLRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Redirects.WithLabelValues(metrics.RedirectNotFound).Inc()
			return "", ErrLinkNotFound
		}
		metrics.Redirects.WithLabelValues(metrics.RedirectError).Inc()
		return "", err
	}

	click := &models.Click{
		ID:         r.ids.NewInternalID(),
		ShortURLID: shortURL.ID,
		Time:       r.now().UTC(),
		Addr:       sanitizeMeta(meta.Addr),
		Referrer:   sanitizeMeta(meta.Referrer),
		Agent:      sanitizeMeta(meta.Agent),
	}
	// Рекордеры сами логируют и репортят свои ошибки
	_ = r.clicks.Record(ctx, click)

	metrics.Redirects.WithLabelValues(metrics.RedirectFound).Inc()
	return shortURL.URL, nil
}

// sanitizeMeta приводит заголовок запроса к строке, которую примет text колонка
func sanitizeMeta(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\x00", "")
}
