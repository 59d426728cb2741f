package factory

import (
	"context"
	"net/http"

	"rfid-admin-service/internal/client"
	"rfid-admin-service/internal/config"
	"rfid-admin-service/internal/crypto"
	"rfid-admin-service/internal/events"
	"rfid-admin-service/internal/handler"
	"rfid-admin-service/internal/hashing"
	"rfid-admin-service/internal/notification"
	"rfid-admin-service/internal/repository/mysql"
	"rfid-admin-service/internal/repository/redis"
	"rfid-admin-service/internal/service"
	"rfid-admin-service/internal/util"
)

// Factory wires every component of the service from configuration. Callers
// get a ready router and a Close that tears the clients down in reverse
// order.
type Factory struct {
	Config *config.Config

	mysqlClient   *client.MySQLClient
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	AccountService *service.AccountService
	Router         http.Handler
}

func NewFactory(ctx context.Context, cfg *config.Config) (*Factory, error) {
	f := &Factory{Config: cfg}

	mysqlClient, err := client.NewMySQLClient(cfg)
	if err != nil {
		return nil, err
	}
	f.mysqlClient = mysqlClient

	masterKey, err := crypto.LoadMasterKey(ctx, cfg.Crypto)
	if err != nil {
		f.Close()
		return nil, err
	}

	cipher, err := crypto.NewFieldCipher(masterKey)
	if err != nil {
		f.Close()
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := client.NewKafkaProducer(cfg, events.OwnerBalancer{})
		if err != nil {
			f.Close()
			return nil, err
		}
		f.kafkaProducer = producer
		publisher = events.NewKafkaPublisher(producer)
	}

	var rateLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		redisClient, err := client.NewRedisClient(cfg)
		if err != nil {
			f.Close()
			return nil, err
		}
		f.redisClient = redisClient
		cache := redis.NewRateLimitCache(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		rateLimit = handler.RateLimit(cache)
	}

	repo := mysql.NewAccountRepository(mysqlClient)
	hasher := hashing.NewHasher(hashing.DefaultParams)
	mailer := notification.NewSMTPDispatcher(cfg.SMTP)

	f.AccountService = service.NewAccountService(repo, cipher, hasher, mailer, publisher, util.Get())

	accountHandler := handler.NewAccountHandler(f.AccountService)
	f.Router = handler.NewRouter(accountHandler, rateLimit, util.Get())

	return f, nil
}

// Close releases every client the factory opened. Safe to call on a
// partially constructed factory.
func (f *Factory) Close() {
	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.Close(); err != nil {
			util.Warn("Failed to close Kafka producer", util.ErrorField(err))
		}
	}
	if f.redisClient != nil {
		if err := f.redisClient.Close(); err != nil {
			util.Warn("Failed to close Redis client", util.ErrorField(err))
		}
	}
	if f.mysqlClient != nil {
		if err := f.mysqlClient.Close(); err != nil {
			util.Warn("Failed to close MySQL client", util.ErrorField(err))
		}
	}
}
