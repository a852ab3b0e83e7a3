package redis

import (
	"context"
	"log"

	"roadmap-service/internal/config"

	"github.com/redis/go-redis/v9"
)

var Redis_Client *redis.Client

func init() {
	cfg := config.ServiceConfig.Redis
	Redis_Client = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := Redis_Client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Error connecting to Redis: %s", err)
	} else {
		log.Println("Successfully connected to Redis")
	}
}

func DisconnectRedis() {
	if Redis_Client != nil {
		if err := Redis_Client.Close(); err != nil {
			log.Printf("Error disconnecting from Redis: %s", err)
		}
	}
}
