package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SergeiKhy/shorturl/internal/metrics"
	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	defaultMaxRetries    = 3    // Максимальное количество попыток записи
	clickWriteTimeout    = 5 * time.Second
)

// ErrProcessorStopped процессор уже остановлен и клики не принимает
var ErrProcessorStopped = errors.New("click processor stopped")

// ClickRecorder принимает готовый клик на запись
type ClickRecorder interface {
	Record(ctx context.Context, click *models.Click) error
}

// FailureReporter внешний канал для ошибок, которые не доходят до клиента
type FailureReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// ClickProcessor асинхронная запись кликов через worker pool
type ClickProcessor interface {
	ClickRecorder
	Start()
	Stop()
}

type ClickProcessorConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// clickProcessor реализация процессора кликов с использованием Worker Pool
type clickProcessor struct {
	clickRepo    repository.ClickRepository
	logger       *zap.Logger
	reporter     FailureReporter
	clickChannel chan *models.Click // Канал для кликов
	workerCount  int
	maxRetries   int
	retryDelay   time.Duration
	wg           sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewClickProcessor создаёт новый экземпляр процессора кликов
func NewClickProcessor(
	clickRepo repository.ClickRepository,
	cfg ClickProcessorConfig,
	reporter FailureReporter,
	logger *zap.Logger,
) ClickProcessor {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkerCount
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultChannelBuffer
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}

	metrics.ClickQueueCapacity.Set(float64(cfg.BufferSize))
	metrics.ClickQueueDepth.Set(0)

	return &clickProcessor{
		clickRepo:    clickRepo,
		logger:       logger,
		reporter:     reporter,
		clickChannel: make(chan *models.Click, cfg.BufferSize),
		workerCount:  cfg.Workers,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	p.logger.Info("Запуск воркеров процессора кликов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop перестаёт принимать клики, дописывает уже принятые и ждёт воркеров
func (p *clickProcessor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.clickChannel)
	p.mu.Unlock()

	p.logger.Info("Остановка процессора кликов...", zap.Int("pending", len(p.clickChannel)))
	p.wg.Wait()
	p.logger.Info("Процессор кликов остановлен")
}

// worker обрабатывает клики из канала, пока он не закрыт
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер кликов запущен", zap.Int("id", id))

	for click := range p.clickChannel {
		metrics.ClickQueueDepth.Set(float64(len(p.clickChannel)))
		p.processClick(click)
	}

	p.logger.Debug("Воркер кликов остановлен", zap.Int("id", id))
}

// processClick записывает один клик с retry логикой
func (p *clickProcessor) processClick(click *models.Click) {
	var err error
	for i := 0; i < p.maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), clickWriteTimeout)
		err = p.clickRepo.Create(ctx, click)
		cancel()
		if err == nil {
			metrics.Clicks.WithLabelValues(metrics.ClickRecorded).Inc()
			return
		}
		if errors.Is(err, repository.ErrInvalidData) {
			break
		}

		if i < p.maxRetries-1 {
			p.logger.Debug("Повторная попытка записи клика",
				zap.String("click_id", click.ID),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * p.retryDelay)
		}
	}

	reportClickFailure(context.Background(), p.logger, p.reporter, click, err)
}

// Record отправляет клик в worker pool (неблокирующая операция).
// При заполненном буфере клик теряется, запрос не блокируется.
// Отмена ctx клика не отменяет: клиент мог отключиться после редиректа.
func (p *clickProcessor) Record(_ context.Context, click *models.Click) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		metrics.Clicks.WithLabelValues(metrics.ClickDropped).Inc()
		p.logger.Warn("Процессор кликов остановлен, событие потеряно",
			zap.String("short_url_id", click.ShortURLID),
		)
		return ErrProcessorStopped
	}

	select {
	case p.clickChannel <- click:
		metrics.ClickQueueDepth.Set(float64(len(p.clickChannel)))
		return nil
	default:
		metrics.Clicks.WithLabelValues(metrics.ClickDropped).Inc()
		p.logger.Warn("Буфер канала кликов заполнен, событие потеряно",
			zap.String("short_url_id", click.ShortURLID),
		)
		return nil
	}
}

// DirectRecorder синхронная запись клика на пути запроса
type DirectRecorder struct {
	clickRepo repository.ClickRepository
	reporter  FailureReporter
	logger    *zap.Logger
}

func NewDirectRecorder(clickRepo repository.ClickRepository, reporter FailureReporter, logger *zap.Logger) *DirectRecorder {
	return &DirectRecorder{clickRepo: clickRepo, reporter: reporter, logger: logger}
}

// Record пишет клик даже если клиент уже отключился
func (r *DirectRecorder) Record(ctx context.Context, click *models.Click) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clickWriteTimeout)
	defer cancel()

	if err := r.clickRepo.Create(ctx, click); err != nil {
		reportClickFailure(ctx, r.logger, r.reporter, click, err)
		return err
	}

	metrics.Clicks.WithLabelValues(metrics.ClickRecorded).Inc()
	return nil
}

func reportClickFailure(ctx context.Context, logger *zap.Logger, reporter FailureReporter, click *models.Click, err error) {
	metrics.Clicks.WithLabelValues(metrics.ClickFailed).Inc()
	logger.Error("Не удалось записать клик",
		zap.String("click_id", click.ID),
		zap.String("short_url_id", click.ShortURLID),
		zap.Error(err),
	)
	if reporter != nil {
		reporter.Report(ctx, err, map[string]string{
			"component":    "click_recorder",
			"short_url_id": click.ShortURLID,
		})
	}
}
