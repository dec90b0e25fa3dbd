package main

import (
	"database/sql"
	"log"
	"order-service/internal/api"
	"order-service/internal/config"
	"order-service/internal/repository"
	"order-service/internal/service"
	"order-service/migrations"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"
)

func connectDB(driver, dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open(driver, dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to %s database", driver)
				return db, nil
			}
		}
		log.Printf("Retry %d: failed to connect to %s database: %v", i+1, driver, err)
		time.Sleep(3 * time.Second)
	}
	return nil, err
}

func main() {
	db, err := connectDB(config.DBDriver(), config.DBDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.AutoMigrate(3, config.DBDriver(), db); err != nil {
		log.Fatalf("Failed to migrate order tables: %v", err)
	}
	if err := migrations.SeedStatuses(db, "Created", "Completed", "Cancelled"); err != nil {
		log.Fatalf("Failed to seed order statuses: %v", err)
	}

	var rdb *redis.Client
	if addr := config.RedisAddr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
	}

	kafkaWriter := config.NewKafkaWriter("order-topic")

	orderRepo := repository.NewOrderRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	orderService := service.NewOrderService(orderRepo, catalogRepo, statusRepo, kafkaWriter, rdb)
	orderHandler := api.NewOrderHandler(orderService)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     60,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.Request().RemoteAddr, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	e.GET("/orders", orderHandler.GetOrders)
	e.POST("/orders", orderHandler.CreateOrder)
	e.GET("/orders/profit-by-month", orderHandler.GetMonthlyProfit)
	e.GET("/orders/products", orderHandler.GetProducts)
	e.GET("/orders/:id", orderHandler.GetOrderByID)
	e.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)

	e.GET("/orders/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "order-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.Logger.Fatal(e.Start(":" + config.Port()))
}
