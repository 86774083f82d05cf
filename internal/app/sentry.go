package app

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// InitSentry включает Sentry при заданном DSN. Пустой DSN не ошибка: отчёты просто выключены.
func InitSentry(dsn, environment string) (bool, error) {
	if dsn == "" {
		return false, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return false, fmt.Errorf("init sentry: %w", err)
	}
	return true, nil
}

// SentryReporter отправляет ошибки, которые не доходят до клиента, например сбой записи клика
type SentryReporter struct{}

func (SentryReporter) Report(ctx context.Context, err error, tags map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}
