package db

import (
	"context"
	"testing"
	"time"

	"huntclub/internal/infrastructure/config"

	"github.com/alicebob/miniredis/v2"
)

func TestConnect_Empty(t *testing.T) {
	ctx := context.Background()
	cfg := config.DBConfig{DSN: ""}
	db, err := Connect(ctx, cfg)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if db != nil {
		t.Error("expected nil db for empty DSN")
	}
}

func TestConnectRedis_Empty(t *testing.T) {
	client, err := ConnectRedis(context.Background(), config.RedisConfig{})
	if err != nil || client != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", client, err)
	}
}

func TestConnectRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()

	client, err := ConnectRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("ConnectRedis failed: %v", err)
	}
	defer client.Close()
}

func TestConnectRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if _, err := ConnectRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
