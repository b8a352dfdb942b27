package main

import (
	"net/http"

	"agromart-be/internal/bid"
	"agromart-be/internal/config"
	"agromart-be/internal/crop"
	"agromart-be/internal/db"
	"agromart-be/internal/handler"
	"agromart-be/internal/logger"
	"agromart-be/internal/notify"
	"agromart-be/internal/order"
	"agromart-be/internal/user"
	"agromart-be/internal/wallet"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	dispatcher := notify.NewDispatcher(256, notify.LogSink{})
	defer dispatcher.Close()

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	cropRepo := crop.NewRepository(database)
	cropSvc := crop.NewService(cropRepo, cfg.WholesaleMinQty)

	bidRepo := bid.NewRepository(database)
	walletRepo := wallet.NewRepository(database)
	walletSvc := wallet.NewService(walletRepo, dispatcher)

	orderRepo := order.NewRepository(database, cropRepo, bidRepo, walletRepo)
	orderSvc := order.NewService(orderRepo, cropRepo, dispatcher, cfg)

	bidSvc := bid.NewService(bidRepo, cropRepo, orderSvc, dispatcher, cfg.MaxCounterRounds)

	h := handler.New(userSvc, cropSvc, bidSvc, orderSvc, walletSvc)
	router := h.SetupRouter()

	addr := ":" + cfg.AppPort
	logger.L().Info("marketplace server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
