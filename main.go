package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"NewsBot/internal/ai"
	"NewsBot/internal/bot"
	"NewsBot/internal/config"
	"NewsBot/internal/httpapi"
	"NewsBot/internal/mtproto"
	"NewsBot/internal/news"
	"NewsBot/internal/nlp"
	"NewsBot/internal/pipeline"
	"NewsBot/internal/session"
)

// setupLogger пишет логи в stderr и, если задан, в файл
func setupLogger(cfg config.LoggingConfig) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "неверный уровень логирования %q", cfg.Level)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), level),
	}
	cleanup := func() {}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "ошибка настройки файла логов")
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level))
		cleanup = func() { file.Close() }
	}

	return zap.New(zapcore.NewTee(cores...)), cleanup, nil
}

func newsSource(cfg config.NewsConfig, log *zap.Logger) (news.Source, error) {
	providers := cfg.Providers()
	sources := make([]news.Source, 0, len(providers))
	for _, name := range providers {
		src, err := news.NewSource(name, news.Options{
			APIKey:     cfg.APIKey(name),
			Language:   cfg.Language,
			Country:    cfg.Country,
			Timeout:    cfg.Timeout(),
			MaxRetries: cfg.MaxRetries,
		}, log)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return news.NewAggregator(log, sources...), nil
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	source, err := newsSource(cfg.News, log)
	if err != nil {
		return err
	}
	log.Info("Источник новостей", zap.String("source", source.Name()))

	provider, err := ai.New(ai.Options{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey(),
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		FolderID: cfg.LLM.YandexFolderID,
		Timeout:  cfg.LLM.Timeout(),
	}, log)
	if err != nil {
		return errors.Wrap(err, "LLM провайдер не создан")
	}

	if cfg.LLM.TestConnection {
		log.Info("🧪 Тестируем подключение к LLM", zap.String("provider", provider.Name()))
		if err := ai.TestConnection(ctx, provider); err != nil {
			return err
		}
		log.Info("✅ LLM подключен успешно")
	}

	nlpService := nlp.NewService(provider, log)
	p := pipeline.New(source, nlpService, nlpService, log)
	controller := session.NewController(session.NewStore(), p, log)

	g, ctx := errgroup.WithContext(ctx)

	switch cfg.Telegram.Transport {
	case config.TransportMTProto:
		transport := mtproto.New(mtproto.Options{
			APIID:      cfg.Telegram.APIID,
			APIHash:    cfg.Telegram.APIHash,
			Token:      cfg.Telegram.Token,
			SessionDir: cfg.Telegram.SessionDir,
		}, controller, log)
		g.Go(func() error { return transport.Run(ctx) })
	default:
		telegramBot, err := bot.New(cfg.Telegram.Token, controller, log)
		if err != nil {
			return err
		}
		g.Go(func() error { return telegramBot.Start(ctx) })
	}

	if cfg.HTTP.Addr != "" {
		server := httpapi.New(controller, cfg.HTTP.AllowOrigins, log)
		g.Go(func() error { return server.Run(ctx, cfg.HTTP.Addr) })
	}

	log.Info("🎉 Система полностью готова к работе",
		zap.String("transport", cfg.Telegram.Transport),
		zap.String("llm", provider.Name()),
	)
	return g.Wait()
}

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка загрузки конфигурации:", err)
		os.Exit(1)
	}

	log, cleanup, err := setupLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()
	defer log.Sync()

	log.Info("Логгер успешно запущен")

	if err := cfg.Validate(); err != nil {
		log.Fatal("Неверная конфигурация", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Приложение остановлено", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Приложение остановлено")
}
