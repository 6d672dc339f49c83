package main

import (
	"fmt"
	"log"
	"os"

	cfg "chatblast/config"
	"chatblast/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	conf := cfg.FromEnv()

	fmt.Println("🔗 Connecting to database...")
	fmt.Println("DSN:", conf.DatabaseURL)

	db, err := gorm.Open(postgres.Open(conf.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}

	sqlDB, _ := db.DB()
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("❌ Failed to ping database: %v", err)
	}

	fmt.Println("✅ Connected to database")
	fmt.Println("🔄 Running migrations...")

	if err := db.AutoMigrate(&domain.ContactList{}, &domain.Contact{}, &domain.AdminSetting{}); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	fmt.Println("✅ Migration complete!")
	fmt.Println("")
	fmt.Println("📊 Checking tables...")

	var tables []string
	db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables)

	if len(tables) == 0 {
		fmt.Println("⚠️  No tables found")
		os.Exit(1)
	}

	fmt.Println("✅ Tables created:")
	for _, table := range tables {
		fmt.Printf("  - %s\n", table)
	}

	fmt.Println("")
	fmt.Println("🎉 Database ready!")
}
