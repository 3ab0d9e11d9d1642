package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"gopherai-training/internal/ai"
	"gopherai-training/internal/app"
	"gopherai-training/internal/archive"
	"gopherai-training/internal/cache"
	"gopherai-training/internal/config"
	"gopherai-training/internal/corpus"
	"gopherai-training/internal/model"
	mysqlClient "gopherai-training/internal/platform/mysql"
	rabbitmqClient "gopherai-training/internal/platform/rabbitmq"
	redisClient "gopherai-training/internal/platform/redis"
	"gopherai-training/internal/repository"
	"gopherai-training/internal/store"
	"gopherai-training/internal/worker"
)

// App owns the process-wide singletons: the document store, the gateway with its single
// configured provider, the task services and whatever optional infrastructure is enabled.
type App struct {
	Config *config.Config

	Store     *store.Store
	Gateway   *ai.Gateway
	Knowledge *app.KnowledgeService
	Questions *app.QuestionService
	Analysis  *app.AnalysisService
	Chat      *app.ChatService
	Ask       *app.AskService
	Briefing  *app.BriefingService

	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	EventPublisher *rabbitmqClient.EventPublisher
	EventWorker    *worker.StoreEventWorker

	provider ai.Provider
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	StartedAt time.Time
}

// New builds the App. Optional infrastructure that cannot be reached is logged and
// skipped; the service keeps running on the in-process store.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, StartedAt: time.Now()}

	provider, err := ai.NewProvider(ctx, ai.ProviderConfig{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("create llm provider failed: %w", err)
	}
	a.provider = provider

	a.connectInfrastructure(ctx)

	gatewayOpts := []ai.GatewayOption{
		ai.WithCallTimeout(cfg.LLM.Timeout()),
		ai.WithHealthTimeout(cfg.LLM.HealthTimeout()),
		ai.WithRateLimit(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst),
	}
	if a.Redis != nil {
		gatewayOpts = append(gatewayOpts, ai.WithResponseCache(cache.NewResponseCache(a.Redis, cfg.LLM.CacheTTL())))
	}
	a.Gateway = ai.NewGateway(provider, gatewayOpts...)
	log.Printf("llm provider: %s (model %q)", a.Gateway.ProviderName(), a.Gateway.Model())

	a.Store = store.New(store.WithMaxChunkChars(cfg.Knowledge.MaxChunkChars))

	knowledgeOpts := []app.KnowledgeOption{app.WithMinIngestChars(cfg.Knowledge.MinIngestChars)}
	src, err := archive.New(ctx, archive.Config{
		Type:         cfg.Archive.Type,
		LocalPath:    cfg.Archive.LocalPath,
		S3Bucket:     cfg.Archive.S3Bucket,
		S3Region:     cfg.Archive.S3Region,
		S3Prefix:     cfg.Archive.S3Prefix,
		AWSAccessKey: cfg.Archive.AWSAccessKey,
		AWSSecretKey: cfg.Archive.AWSSecretKey,
	})
	if err != nil {
		log.Printf("warning: source archive disabled: %v", err)
	} else if src != nil {
		knowledgeOpts = append(knowledgeOpts, app.WithSourceArchive(src))
	}

	var repo *repository.DocumentRepository
	if a.MySQL != nil {
		repo = repository.NewDocumentRepository(a.MySQL)
		a.restore(ctx, repo)
	}
	if sink := a.eventSink(ctx, repo); sink != nil {
		knowledgeOpts = append(knowledgeOpts, app.WithEventSink(sink))
	}

	a.Knowledge = app.NewKnowledgeService(a.Store, knowledgeOpts...)
	a.Questions = app.NewQuestionService(a.Gateway, a.Store, cfg.Knowledge.MinAnalysisChars)
	a.Analysis = app.NewAnalysisService(a.Gateway, cfg.Knowledge.MinAnalysisChars)
	a.Chat = app.NewChatService(a.Gateway)
	a.Ask = app.NewAskService(a.Gateway, a.Store)
	a.Briefing = app.NewBriefingService(a.Gateway, a.Store)

	if cfg.Knowledge.SeedFile != "" {
		manifest, err := corpus.LoadManifest(cfg.Knowledge.SeedFile)
		if err != nil {
			log.Printf("warning: seed corpus skipped: %v", err)
		} else {
			r := corpus.Seed(ctx, a.Knowledge, manifest)
			log.Printf("seed corpus: %d ingested, %d already present, %d failed", r.Ingested, r.Skipped, r.Failed)
		}
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if cfg.Knowledge.WatchDir != "" {
		w := corpus.NewWatcher(cfg.Knowledge.WatchDir, a.Knowledge, corpus.WithDefaultCategory(cfg.Knowledge.WatchCategory))
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := w.Run(bgCtx); err != nil {
				log.Printf("drop folder watcher stopped: %v", err)
			}
		}()
		log.Printf("watching %s for documents", cfg.Knowledge.WatchDir)
	}

	return a, nil
}

func (a *App) connectInfrastructure(ctx context.Context) {
	cfg := a.Config
	if cfg.MySQL.Enabled {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), &model.Document{}, &model.Chunk{})
		if err != nil {
			log.Printf("warning: mysql mirror disabled: %v", err)
		} else {
			a.MySQL = db
		}
	}
	if cfg.Redis.Enabled {
		client, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Printf("warning: response cache disabled: %v", err)
		} else {
			a.Redis = client
		}
	}
	if cfg.RabbitMQ.Enabled {
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.StoreEventQueue)
		if err != nil {
			log.Printf("warning: store event queue disabled: %v", err)
		} else {
			a.MQConn = conn
		}
	}
}

func (a *App) restore(ctx context.Context, repo *repository.DocumentRepository) {
	docs, err := repo.LoadAll(ctx)
	if err != nil {
		log.Printf("warning: restore documents from mysql failed: %v", err)
		return
	}
	restored := 0
	for _, d := range docs {
		if err := a.Store.Restore(d.Document, d.Chunks); err != nil {
			log.Printf("restore document %s failed: %v", d.Document.ID, err)
			continue
		}
		restored++
	}
	log.Printf("restored %d of %d documents from mysql", restored, len(docs))
}

// eventSink routes store events through RabbitMQ when it is connected, otherwise straight
// to the repository.
func (a *App) eventSink(ctx context.Context, repo *repository.DocumentRepository) app.EventSink {
	if a.MQConn != nil {
		queue := a.Config.RabbitMQ.StoreEventQueue
		a.EventPublisher = rabbitmqClient.NewEventPublisher(a.MQConn, queue)
		if repo != nil {
			a.EventWorker = worker.NewStoreEventWorker(a.MQConn, repo, queue)
			if err := a.EventWorker.Start(ctx); err != nil {
				log.Printf("warning: start store event worker failed: %v", err)
				a.EventWorker = nil
			}
		}
		return a.EventPublisher
	}
	if repo != nil {
		return app.EventSinkFunc(repo.Apply)
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	if a.EventPublisher != nil {
		if err := a.EventPublisher.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if c, ok := a.provider.(io.Closer); ok {
		if err := c.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
