package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rfq-match/api/handler"
	"rfq-match/api/router"
	"rfq-match/job"
	"rfq-match/logger"
	"rfq-match/logic/chat"
	"rfq-match/logic/extract"
	"rfq-match/logic/match"
	"rfq-match/logic/recall"
	"rfq-match/mq"
	"rfq-match/service"
	"rfq-match/storage/cache"
	"rfq-match/storage/es"
	"rfq-match/storage/milvus"
	"rfq-match/storage/postgres"
	"rfq-match/types"
	"rfq-match/vars"
)

func main() {
	log, err := logger.New(vars.APP_ENV, vars.LOG_LEVEL)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 初始化 DB
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		vars.PGHOST, vars.PGUSER, vars.PGPWD, vars.PGDB, vars.PGPORT)
	db, err := postgres.InitDB(dsn, vars.APP_ENV != "production")
	if err != nil {
		return err
	}
	catalog := postgres.NewCatalogRepo(db)
	matchRepo := postgres.NewMatchRepo(db)

	// 2. LLM + 抽取
	chatModel, err := chat.NewChatModel(ctx, chat.ModelConfig{
		Provider: vars.LLM_PROVIDER,
		BaseURL:  llmBaseURL(),
		APIKey:   vars.OPENAI_API_KEY,
		Model:    vars.LLM_MODEL,
	})
	if err != nil {
		return err
	}
	infer := chat.NewModelInferencer(chatModel, log,
		chat.WithTimeout(vars.LLM_TIMEOUT),
		chat.WithMaxTries(vars.LLM_MAX_TRIES))
	dispatcher := extract.NewDefaultDispatcher(infer, log)

	// 3. 排序引擎
	cfg := match.DefaultConfig()
	cfg.TopN = vars.MATCH_TOP_N
	cfg.Workers = vars.MATCH_WORKERS
	engine := match.NewEngine(cfg, log.Named("engine"))

	// 4. 召回索引 (可选)，任一路初始化失败只降级不退出
	var (
		keyword  recall.KeywordSearcher
		vector   retriever.Retriever
		targets  []job.Target
		indexers []service.SupplierIndexer
	)
	if vars.ESADDR != "" {
		esIdx, err := es.NewSupplierIndex(ctx, strings.Split(vars.ESADDR, ","), vars.SUPPLIER_INDEX, log.Named("es"))
		if err != nil {
			log.Warn("keyword recall disabled", zap.Error(err))
		} else {
			keyword = esIdx
			targets = append(targets, job.Target{Name: "es", Indexer: esIdx})
			indexers = append(indexers, esIdx)
		}
	}
	if vars.MILVUSADDR != "" {
		store, retr, err := initMilvus(ctx, log)
		if err != nil {
			log.Warn("vector recall disabled", zap.Error(err))
		} else {
			vector = retr
			targets = append(targets, job.Target{Name: "milvus", Indexer: store})
			indexers = append(indexers, store)
		}
	}
	fusion := recall.DefaultFusionConfig()
	fusion.TopK = vars.RECALL_TOP_K

	opts := []service.Option{
		service.WithRecall(recall.NewRecaller(keyword, vector, fusion, log.Named("recall"))),
		service.WithSupplierIndexers(indexers...),
	}

	// 5. Redis 缓存 (可选)
	if vars.REDISADDR != "" {
		rdb, err := cache.NewRedisClient(ctx, vars.REDISADDR, vars.REDISPWD)
		if err != nil {
			log.Warn("match cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			opts = append(opts, service.WithCache(cache.NewMatchCache(rdb, vars.MATCH_TTL, log.Named("cache"))))
		}
	}

	// 6. Kafka (可选)
	var brokers []string
	if vars.KAFKA_BROKERS != "" {
		brokers = strings.Split(vars.KAFKA_BROKERS, ",")
		producer := mq.NewProducer(brokers, vars.KAFKA_EVENTS, vars.KAFKA_WRITE_TIMEOUT, log)
		defer producer.Close()
		opts = append(opts, service.WithPublisher(producer))
	}

	svc := service.NewMatchService(dispatcher, engine, catalog, matchRepo, log, opts...)

	if len(brokers) > 0 {
		consumer := mq.NewConsumer(brokers, vars.KAFKA_INBOUND, vars.KAFKA_GROUP,
			func(ctx context.Context, doc *types.Document) error {
				_, err := svc.Process(ctx, doc)
				return err
			}, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("consumer stopped", zap.Error(err))
			}
		}()
		log.Info("kafka consumer started", zap.String("topic", vars.KAFKA_INBOUND))
	}

	// 7. 定时同步召回索引，启动时先跑一次
	reindexer := job.NewReindexer(catalog, log, targets...)
	c, err := job.StartCronJob(vars.REINDEX_SPEC, reindexer, log)
	if err != nil {
		return err
	}
	defer c.Stop()
	go func() {
		if err := reindexer.Run(ctx); err != nil {
			log.Warn("initial reindex", zap.Error(err))
		}
	}()

	// 8. Web Server
	if vars.APP_ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.New(log)
	router.RegisterRoutes(r, handler.NewMatchHandler(svc, log))
	srv := &http.Server{Addr: vars.HTTP_ADDR, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", vars.HTTP_ADDR))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func initMilvus(ctx context.Context, log *zap.Logger) (*milvus.SupplierStore, retriever.Retriever, error) {
	embedder, err := recall.NewEmbedder(ctx, vars.OLLAMA_PATH, vars.NOMIC, log.Named("embedder"))
	if err != nil {
		return nil, nil, err
	}
	cli, err := milvus.Connect(ctx, vars.MILVUSADDR)
	if err != nil {
		return nil, nil, err
	}
	idx, err := milvus.NewSupplierIndexer(ctx, cli, embedder, vars.COLLECTION, log.Named("milvus"))
	if err != nil {
		return nil, nil, err
	}
	retr, err := milvus.NewSupplierRetriever(ctx, cli, embedder, vars.COLLECTION, vars.RECALL_TOP_K)
	if err != nil {
		return nil, nil, err
	}
	log.Info("milvus connected", zap.String("addr", vars.MILVUSADDR))
	return milvus.NewSupplierStore(idx, cli, vars.COLLECTION), retr, nil
}

func llmBaseURL() string {
	if vars.LLM_PROVIDER == vars.ProviderOpenAI {
		return vars.OPENAI_BASEURL
	}
	return vars.OLLAMA_PATH
}
