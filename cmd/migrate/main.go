package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"huntclub/internal/infrastructure/config"
	"huntclub/internal/infrastructure/db/migrations"
	"huntclub/internal/infrastructure/persistence/postgres"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	command := flag.String("cmd", "up", "goose command: up, down, status")
	seed := flag.Bool("seed", false, "seed default roles and users after migrating")
	flag.Parse()

	cfg, err := config.LoadFromFile(*cfgPath)
	if err != nil {
		log.Fatalf("讀取組態失敗: %v", err)
	}

	if cfg.DB.DSN == "" {
		log.Fatal("config.db.dsn 未設定，無法執行 migration")
	}

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		log.Fatalf("連線資料庫失敗: %v", err)
	}
	defer db.Close()

	if err := run(context.Background(), db, *command); err != nil {
		log.Fatalf("執行 migration 失敗: %v", err)
	}

	if *seed {
		if err := postgres.NewUserRepo(db).SeedDefaults(context.Background()); err != nil {
			log.Fatalf("建立預設帳號失敗: %v", err)
		}
		log.Printf("預設帳號已建立")
	}

	fmt.Println("Migration 完成")
	os.Exit(0)
}

func run(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch command {
	case "up":
		return goose.UpContext(ctx, db, ".")
	case "down":
		return goose.DownContext(ctx, db, ".")
	case "status":
		return goose.StatusContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
