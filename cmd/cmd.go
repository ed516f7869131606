package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/notify-api/internal/config"
	"github.com/nsxzhou1114/notify-api/internal/controller"
	"github.com/nsxzhou1114/notify-api/internal/database"
	"github.com/nsxzhou1114/notify-api/internal/events"
	"github.com/nsxzhou1114/notify-api/internal/logger"
	"github.com/nsxzhou1114/notify-api/internal/metrics"
	"github.com/nsxzhou1114/notify-api/internal/middleware"
	"github.com/nsxzhou1114/notify-api/internal/model"
	"github.com/nsxzhou1114/notify-api/internal/repository"
	"github.com/nsxzhou1114/notify-api/internal/router"
	"github.com/nsxzhou1114/notify-api/internal/service"
	"github.com/nsxzhou1114/notify-api/pkg/auth"
	"github.com/nsxzhou1114/notify-api/pkg/cache"
	"github.com/nsxzhou1114/notify-api/pkg/idgen"
	"github.com/nsxzhou1114/notify-api/pkg/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var configPath string

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "notify-api",
	Short: "实时通知服务",
	Long:  `负责点赞、评论、提及通知的创建、去重、存储、查询和WebSocket实时推送`,
}

// serveCmd 启动服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	Long:  `启动HTTP接口、WebSocket推送、Kafka消费者和定时清理任务`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer()
	},
}

func init() {
	// 添加全局标志
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config", "配置文件路径")

	// 添加子命令
	rootCmd.AddCommand(serveCmd)
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// initializeSystem 初始化配置、日志和MySQL
func initializeSystem() (*config.Config, *gorm.DB, error) {
	if err := config.Init(configPath); err != nil {
		return nil, nil, fmt.Errorf("配置初始化失败: %w", err)
	}
	cfg := config.GetConfig()

	logger.Init(&cfg.Log)

	db, err := database.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, nil, err
	}
	if err := model.InitTables(db); err != nil {
		return nil, nil, fmt.Errorf("初始化数据库表失败: %w", err)
	}
	return cfg, db, nil
}

// app 服务运行所需的组件
type app struct {
	cfg        *config.Config
	db         *gorm.DB
	redis      *redis.Client
	manager    *websocket.Manager
	dispatcher *service.Dispatcher
	cleanup    *service.CleanupService
	engine     *gin.Engine
}

func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*app, error) {
	log := logger.GetSugaredLogger()

	if err := idgen.SetEpoch(cfg.Snowflake.StartTime); err != nil {
		return nil, err
	}
	ids, err := idgen.New(cfg.Snowflake.MachineID)
	if err != nil {
		return nil, err
	}

	notifications := repository.NewNotificationRepository(db)
	content := repository.NewContentRepository(db)
	manager := websocket.NewManager(log, cfg.Notification.ClientBufferSize)

	enricher := service.NewEnricher(content, cache.NewRedisCache(rdb), cfg.Notification.CacheTTL(), log)
	dedup := service.NewDedupPolicy(notifications, cfg.Notification.DedupWindow())
	dispatcher := service.NewDispatcher(notifications, dedup, enricher, manager, ids, log)
	query := service.NewQueryService(notifications, content, enricher, cfg.Notification.ListLimit, log)
	readState := service.NewReadStateManager(notifications, log)

	jwt := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessExpireSeconds)*time.Second)

	if err := metrics.RegisterConnectionStats(prometheus.DefaultRegisterer, func() metrics.ConnectionStats {
		stats := manager.GetStats()
		return metrics.ConnectionStats{
			Online:  stats.ActiveConnections,
			Sent:    stats.MessagesSent,
			Dropped: stats.MessagesDropped,
		}
	}); err != nil {
		return nil, fmt.Errorf("注册监控指标失败: %w", err)
	}

	gin.SetMode(cfg.App.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinLogger(logger.Logger))
	r.Use(middleware.Cors(cfg.App.AllowedOrigins))
	router.Setup(r, router.Deps{
		JWT:             jwt,
		Blacklist:       auth.NewRedisTokenBlacklist(rdb),
		InternalToken:   cfg.Notification.InternalToken,
		NotificationApi: controller.NewNotificationApi(dispatcher, query, readState, log),
		WebSocketApi:    controller.NewWebSocketApi(manager, log),
	})

	return &app{
		cfg:        cfg,
		db:         db,
		redis:      rdb,
		manager:    manager,
		dispatcher: dispatcher,
		cleanup:    service.NewCleanupService(notifications, cfg.Notification.RetentionDays, log),
		engine:     r,
	}, nil
}

// startServer 启动HTTP服务
func startServer() error {
	cfg, db, err := initializeSystem()
	if err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		return err
	}
	defer logger.Sync()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	a, err := newApp(cfg, db, rdb)
	if err != nil {
		return err
	}

	if cfg.Notification.CleanupCron != "" && cfg.Notification.RetentionDays > 0 {
		if err := a.cleanup.Start(cfg.Notification.CleanupCron); err != nil {
			return err
		}
		defer a.cleanup.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: a.engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("服务已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务启动失败: %w", err)
		}
		return nil
	})

	if cfg.Kafka.Enabled {
		consumer := events.NewConsumer(&cfg.Kafka, events.NewTriggerHandler(a.dispatcher, logger.GetSugaredLogger()), logger.GetSugaredLogger())
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("关闭服务...")

		// 先关闭所有推送通道，再等待HTTP请求结束
		a.manager.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("服务关闭异常: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
		return err
	}
	logger.Info("服务已关闭")
	return nil
}
