package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/events"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/handler"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/infra/db"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/infra/messaging"
	infraRepo "github.com/Mavimarmara/likeme-back-end-sub002/internal/infra/repository"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/logging"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/payment"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/server"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番はenvから直接）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.Init("api", cfg.LogFile)

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Error("db connect failed", "error", err)
		os.Exit(1)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.StockMovement{},
		&model.AuditLog{},
	); err != nil {
		log.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//決済gateway
	gateway := payment.NewHTTPGateway(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.PaymentTimeout)

	//注文イベント（AMQP未設定なら発行なしで動く）
	var pub events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		rabbit, err := messaging.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Error("rabbitmq connect failed", "error", err)
			os.Exit(1)
		}
		defer rabbit.Close()
		pub = rabbit
	}

	//Usecase
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator())
	productUC := usecase.NewProductUsecase(productRepo, txManager, auditRepo)
	orderUC := usecase.NewOrderUsecase(txManager, gateway, pub, cfg)
	adminOrderUC := usecase.NewAdminOrderUsecase(orderRepo, orderItemRepo, auditRepo)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, auditRepo)

	//ルーティング
	e := server.New()
	handler.NewAuthHandler(authUC, cfg).RegisterRoutes(e, cfg, userRepo)
	handler.NewProductHandler(productUC).RegisterRoutes(e)
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewAdminProductHandler(productUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewAdminOrderHandler(adminOrderUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewAdminUserHandler(adminUserUC, authUC).RegisterRoutes(e, cfg, userRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	log.Info("server starting", "addr", addr, "env", cfg.GoEnv)

	if err := server.Start(ctx, e, addr); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server shut down")
}
