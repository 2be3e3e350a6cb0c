// Package state wires up process-wide dependencies (config, database, redis,
// logger). Delivery logic never reads from here: components receive their
// dependencies explicitly at construction time.
package state

import (
	"context"
	"strings"

	"studytraka/config"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.SugaredLogger
	Context   = context.Background()
	Validator = validator.New()

	Config *config.Config
)

func httpOrHttps(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

func Setup(configFile string) {
	Validator.RegisterValidation("httporhttps", httpOrHttps)

	logger, err := zap.NewProduction()

	if err != nil {
		panic(err)
	}

	Logger = logger.Sugar()

	Config, err = config.Load(configFile, Validator)

	if err != nil {
		panic(err)
	}

	Pool, err = pgxpool.New(Context, Config.Meta.PostgresURL)

	if err != nil {
		panic(err)
	}

	rOptions, err := redis.ParseURL(Config.Meta.RedisURL)

	if err != nil {
		panic(err)
	}

	Redis = redis.NewClient(rOptions)
}
