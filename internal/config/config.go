package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Check-in ayarları
	QRTokenTTLMinutes      int // QR kodun geçerlilik süresi (dakika)
	CheckinCooldownMinutes int // İki giriş arası minimum bekleme (dakika)

	// Üyelik durumu ayarları
	ExpiringSoonDays  int // "Yakında bitiyor" penceresi (gün)
	InactiveAfterDays int // Bu kadar gün giriş yoksa üye pasif sayılır
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=gymsync port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		QRTokenTTLMinutes:      getEnvInt("QR_TOKEN_TTL_MINUTES", 5),
		CheckinCooldownMinutes: getEnvInt("CHECKIN_COOLDOWN_MINUTES", 120),
		ExpiringSoonDays:       getEnvInt("EXPIRING_SOON_DAYS", 20),
		InactiveAfterDays:      getEnvInt("INACTIVE_AFTER_DAYS", 7),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.DatabaseDSN == "host=localhost user=postgres password=postgres dbname=gymsync port=5432 sslmode=disable" {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}
	if cfg.QRTokenTTLMinutes <= 0 || cfg.CheckinCooldownMinutes < 0 {
		log.Fatal("[FATAL] QR_TOKEN_TTL_MINUTES pozitif, CHECKIN_COOLDOWN_MINUTES negatif olmayan bir değer olmalı.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s sayı değil (%q), varsayılan %d kullanılıyor", key, v, def)
		return def
	}
	return n
}
