package main

import (
	"context"
	"flag"
	"log"

	"member2ldap/pkg/config"
	"member2ldap/pkg/database/postgresql"
	"member2ldap/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (источник участников)       ")
	log.Println("======================================================")

	runMigrate := flag.Bool("migrate", false, "Применить миграции схемы участников")
	runMembers := flag.Bool("members", false, "Добавить демо-участников")
	runAll := flag.Bool("all", false, "Миграции и демо-участники (эквивалентно -migrate -members)")
	site := flag.String("site", "portal", "Сайт, для которого создаются участники")

	flag.Parse()

	if !*runMigrate && !*runMembers && !*runAll {
		log.Println("❌ Не выбран ни один шаг.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -all")
		log.Println("  go run ./seeders/cmd/seed -members -site intranet")
		log.Println("======================================================")
		return
	}

	ctx := context.Background()
	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Source.DSN)

	if *runAll || *runMigrate {
		if err := seeders.Migrate(ctx, cfg.Source.DSN); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Println("======================================================")
	}

	if *runAll || *runMembers {
		dbPool, err := postgresql.ConnectDB(ctx, cfg.Source.DSN)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer dbPool.Close()

		if err := seeders.SeedMembers(ctx, dbPool, *site); err != nil {
			log.Fatalf("❌ Ошибка наполнения участников: %v", err)
		}
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
}
