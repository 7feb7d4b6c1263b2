package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classboard/internal/account"
	"classboard/internal/config"
	"classboard/internal/queue"
	"classboard/internal/store"
)

// Worker consumes auth events from the queue and writes audit rows.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.AccountsDBURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classboard:auth-events")
	}

	repo := account.NewRepository(db.Client)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema init failed: %v", err)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for auth events...")
	for msg := range messages {
		if msg.Type != "auth" {
			continue
		}

		var evt queue.AuthEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad auth event payload: %v", err)
			continue
		}

		err := repo.InsertAuthEvent(ctx, account.AuthEvent{
			Username:   evt.Username,
			Kind:       evt.Kind,
			OccurredAt: evt.OccurredAt,
		})
		if err != nil {
			log.Printf("audit insert failed for %s/%s: %v", evt.Username, evt.Kind, err)
			continue
		}
		log.Printf("recorded %s for %s", evt.Kind, evt.Username)
	}

	log.Println("worker stopped")
}
