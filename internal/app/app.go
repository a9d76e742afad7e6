// Package app wires configuration into a ready BookingService.  It is
// shared by the HTTP server and the sweeper CLI so both see the same
// store, lock and event settings.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/house-rental-booking/internal/config"
	"github.com/iliyamo/house-rental-booking/internal/database"
	"github.com/iliyamo/house-rental-booking/internal/lock"
	"github.com/iliyamo/house-rental-booking/internal/model"
	"github.com/iliyamo/house-rental-booking/internal/repository"
	"github.com/iliyamo/house-rental-booking/internal/service"
)

// App holds the long-lived dependencies.  DB and Redis are nil when the
// memory store is used or Redis is off.
type App struct {
	Service *service.BookingService
	DB      *sql.DB
	Redis   *redis.Client

	closers []func() error
}

// Close releases everything Build opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// Build opens the store selected by cfg.StoreDriver, the optional Redis
// house lock and the event publisher, and returns the service over them.
func Build(ctx context.Context, cfg config.Config, log *logrus.Logger) (*App, error) {
	a := &App{}

	var store service.Store
	switch cfg.StoreDriver {
	case "mysql":
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		if err := database.Migrate(ctx, db, log); err != nil {
			a.Close()
			return nil, err
		}
		store = repository.NewBookingRepo(db)
	case "memory":
		mem := repository.NewMemoryStore()
		houses, err := ParseSeedHouses(os.Getenv("SEED_HOUSES"))
		if err != nil {
			return nil, err
		}
		for _, h := range houses {
			mem.PutHouse(h)
		}
		log.WithField("houses", len(houses)).Warn("using in-memory store; data is lost on exit")
		store = mem
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	opts := []service.Option{}

	a.Redis = config.NewRedisClient(log)
	if a.Redis != nil {
		a.closers = append(a.closers, a.Redis.Close)
		// A nil *HouseLocker must not be stored in the interface.
		if l := lock.NewHouseLocker(config.LoadLockConfig(), a.Redis); l != nil {
			opts = append(opts, service.WithLocker(l))
		}
	}

	if cfg.EventsEnabled {
		pub := service.NewAMQPPublisher(cfg.RabbitURL, log)
		a.closers = append(a.closers, pub.Close)
		opts = append(opts, service.WithPublisher(pub))
	}

	a.Service = service.NewBookingService(store, log, opts...)
	return a, nil
}

// ParseSeedHouses reads "id:owner:price" triples separated by commas,
// e.g. "1:10:900,2:11:1500.50".  It seeds the memory store for local runs.
func ParseSeedHouses(s string) ([]model.House, error) {
	var out []model.House
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("seed house %q: want id:owner:price", item)
		}
		id, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("seed house %q: bad id", item)
		}
		owner, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil || owner == 0 {
			return nil, fmt.Errorf("seed house %q: bad owner", item)
		}
		price, err := decimal.NewFromString(parts[2])
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("seed house %q: bad price", item)
		}
		out = append(out, model.House{ID: id, OwnerID: owner, PricePerMonth: price})
	}
	return out, nil
}
