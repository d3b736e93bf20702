package utils

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}

// DatabaseURL returns the connection string from the --url flag or config,
// falling back to DATABASE_URL.
func DatabaseURL() string {
	if url := viper.GetString("database.url"); url != "" {
		return url
	}
	return os.Getenv("DATABASE_URL")
}
