package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// FeePercent returns the platform fee percentage clamped to [0,100].
func FeePercent() int64 {
	raw := os.Getenv("PLATFORM_FEE_PERCENT")
	pct, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("Invalid PLATFORM_FEE_PERCENT %q, using default of 10\n", raw)
		return 10
	}
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// PlatformAccountID is the user id that receives platform fee payments.
func PlatformAccountID() uint {
	raw := os.Getenv("PLATFORM_ACCOUNT_ID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 1
	}
	return uint(id)
}
