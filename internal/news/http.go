package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// DefaultTimeout таймаут запроса к новостному API
const DefaultTimeout = 15 * time.Second

// ErrMissingAPIKey возвращается, когда ключ провайдера не задан
var ErrMissingAPIKey = errors.New("API ключ не задан")

// Options общие настройки HTTP-провайдеров новостей
type Options struct {
	APIKey     string
	Language   string
	Country    string
	BaseURL    string // пустое значение - адрес провайдера по умолчанию
	Timeout    time.Duration
	MaxRetries int // 0 - одна попытка без повторов
}

// StatusError описывает ответ провайдера с кодом, отличным от 200
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("провайдер вернул статус %d", e.Code)
}

// fetcher выполняет GET-запросы с политикой повторов
type fetcher struct {
	client     *http.Client
	maxRetries int
}

func newFetcher(opts Options) fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return fetcher{
		client:     &http.Client{Timeout: timeout},
		maxRetries: retries,
	}
}

// retry выполняет op, повторяя только временные ошибки (429, 5xx, сеть)
func (f fetcher) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(f.maxRetries)),
		ctx,
	)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// getJSON загружает endpoint и декодирует JSON-ответ в dst
func (f fetcher) getJSON(ctx context.Context, endpoint string, dst any) error {
	return f.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return errors.Wrap(err, "создание запроса")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return errors.Wrap(err, "выполнение запроса")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &StatusError{Code: resp.StatusCode}
		}

		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return errors.Wrap(err, "разбор ответа")
		}
		return nil
	})
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// logFailure пишет в лог конкретную причину неудачного запроса
func logFailure(log *zap.Logger, topic string, err error) {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		log.Error("API ключ не найден, проверьте .env", zap.String("topic", topic))
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized:
		log.Error("Неверный API ключ", zap.String("topic", topic), zap.Int("status", statusErr.Code))
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests:
		log.Warn("Превышен лимит запросов", zap.String("topic", topic), zap.Int("status", statusErr.Code))
	case errors.As(err, &statusErr):
		log.Error("Ошибка API", zap.String("topic", topic), zap.Int("status", statusErr.Code))
	default:
		log.Error("Ошибка запроса новостей", zap.String("topic", topic), zap.Error(err))
	}
}
