package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	http_adapter "github.com/JoeShih716/go-pay-ledger/internal/app/core/adapter/in/http"
	memory_adapter "github.com/JoeShih716/go-pay-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-pay-ledger/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-pay-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-pay-ledger/pkg/mysql"
	"github.com/JoeShih716/go-pay-ledger/pkg/wal"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Ledger struct {
		// Backend 選擇帳本實作: "memory" (WAL 持久化) 或 "mysql"
		Backend string `yaml:"backend"`
		WALPath string `yaml:"wal_path"`
	} `yaml:"ledger"`
	MySQL mysql.Config `yaml:"mysql"`
}

func main() {
	// 1. 載入設定
	cfg := loadConfig()

	// 2. 依設定選擇 Ledger 實作 (Driven Adapter)
	var usedLedger usecase.Ledger
	switch cfg.Ledger.Backend {
	case "mysql":
		dbClient, err := mysql.NewClient(cfg.MySQL)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer dbClient.Close()
		log.Println("Connected to MySQL successfully")

		ledgerRepo := mysql_adapter.NewMySQLLedger(dbClient)
		if err := ledgerRepo.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to migrate schema: %v", err)
		}
		usedLedger = ledgerRepo
	case "memory":
		// 初始化 WAL
		walFile, err := wal.NewWAL(cfg.Ledger.WALPath)
		if err != nil {
			log.Fatalf("Failed to init WAL: %v", err)
		}
		defer walFile.Close()

		memLedger, err := memory_adapter.NewMemoryLedger(walFile)
		if err != nil {
			log.Fatalf("Failed to init MemoryLedger: %v", err)
		}
		usedLedger = memLedger
	default:
		log.Fatalf("Invalid ledger backend: %q", cfg.Ledger.Backend)
	}

	// 3. 初始化 UseCase
	coreUseCase := usecase.NewCoreUseCase(usedLedger)

	// 4. 初始化 HTTP Adapter (Driving Adapter)
	restServer := http_adapter.NewServer(coreUseCase)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: restServer.Router(),
	}

	// 5. 啟動 HTTP Server
	go func() {
		log.Printf("Starting HTTP server on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server exited")
}

func loadConfig() Config {
	cfgData, err := os.ReadFile("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}

	// 補全預設配置 (如果 yaml 沒寫)
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = "memory"
	}
	if cfg.Ledger.WALPath == "" {
		cfg.Ledger.WALPath = "wal.log"
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 100
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 10
	}
	if cfg.MySQL.ConnMaxLifetime == 0 {
		cfg.MySQL.ConnMaxLifetime = 30 * time.Minute
	}
	return cfg
}
