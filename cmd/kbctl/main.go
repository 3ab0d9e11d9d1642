package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"gopherai-training/internal/cli"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env failed: %v", err)
	}
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
