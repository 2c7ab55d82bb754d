package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"back_office/internal/config"
	"back_office/internal/fulfillment"
	"back_office/internal/model"
	"back_office/internal/queue"
	"back_office/internal/router"
	rediskey "back_office/pkg/redis"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Two separate databases: catalog orders and the POS ledger each keep
	// their own transactional boundary.
	orderDB, err := gorm.Open(sqlite.Open(cfg.OrderDBPath+"?_busy_timeout=5000&_txlock=immediate"), &gorm.Config{})
	if err != nil {
		log.Fatalf("order db open: %v", err)
	}
	if err := orderDB.AutoMigrate(&model.Order{}, &model.OrderItem{}); err != nil {
		log.Fatalf("order db migrate: %v", err)
	}

	ledgerDB, err := gorm.Open(sqlite.Open(cfg.LedgerDBPath+"?_busy_timeout=5000&_txlock=immediate"), &gorm.Config{})
	if err != nil {
		log.Fatalf("ledger db open: %v", err)
	}
	if err := ledgerDB.AutoMigrate(&model.LedgerTransaction{}, &model.LedgerItem{}, &model.FulfillmentAudit{}); err != nil {
		log.Fatalf("ledger db migrate: %v", err)
	}

	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})

	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	outbox := queue.NewStreamOutbox(rdb, cfg.FulfillmentStream)
	pending := rediskey.NewPendingMarker(rdb, cfg.PendingMarkerTTL)

	orders := fulfillment.NewOrderStore(orderDB)
	ledger := fulfillment.NewLedgerStore(ledgerDB)
	syncer := fulfillment.NewSynchronizer(orders, ledger, outbox, pending)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay := queue.NewRelay(rdb, producer, cfg.FulfillmentStream, cfg.FulfillmentGroup, cfg.FulfillmentConsumer)
	go relay.Run(ctx)

	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, ledgerDB)
	defer consumer.Close()
	go consumer.Run(ctx)

	r := gin.Default()
	router.Setup(r, router.Deps{
		Orders:  orders,
		Ledger:  ledger,
		Syncer:  syncer,
		Redis:   rdb,
		Pending: pending,
		Cfg:     cfg,
	})

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
