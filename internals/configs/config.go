package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string
	ClientURL string

	PaymentGateway      string
	PaymentCurrency     string
	MidtransServerKey   string
	MidtransUseProd     bool
	StripeSecretKey     string
	StripeWebhookSecret string

	DonationMinAmount int64
	CampaignMinGoal   int64

	WebhookQueue   string
	WebhookWorkers int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	RepairInterval time.Duration
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[WARN] .env file not found, using system environment")
		} else {
			log.Println("[INFO] .env file loaded")
		}
	} else {
		log.Println("[INFO] Running in Railway, using system environment")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	ClientURL = strings.TrimRight(GetEnv("CLIENT_URL", "http://localhost:5173"), "/")

	PaymentGateway = strings.ToLower(GetEnv("PAYMENT_GATEWAY", "midtrans"))
	PaymentCurrency = strings.ToLower(GetEnv("PAYMENT_CURRENCY", "idr"))
	MidtransServerKey = GetEnv("MIDTRANS_SERVER_KEY")
	MidtransUseProd = GetEnvBool("MIDTRANS_USE_PROD", false)
	StripeSecretKey = GetEnv("STRIPE_SECRET_KEY")
	StripeWebhookSecret = GetEnv("STRIPE_WEBHOOK_SECRET")

	DonationMinAmount = int64(GetEnvInt("DONATION_MIN_AMOUNT", 200))
	CampaignMinGoal = int64(GetEnvInt("CAMPAIGN_MIN_GOAL", 1000))

	WebhookQueue = strings.ToLower(GetEnv("WEBHOOK_QUEUE", "memory"))
	WebhookWorkers = GetEnvInt("WEBHOOK_WORKERS", 4)
	RedisAddr = GetEnv("REDIS_ADDR", "localhost:6379")
	RedisPassword = GetEnv("REDIS_PASSWORD")
	RedisDB = GetEnvInt("REDIS_DB", 0)

	RepairInterval = time.Duration(GetEnvInt("REPAIR_INTERVAL_MINUTES", 15)) * time.Minute

	if JWTSecret == "" {
		log.Println("[ERROR] JWT_SECRET is not set")
	}
	switch PaymentGateway {
	case "midtrans":
		if MidtransServerKey == "" {
			log.Println("[ERROR] MIDTRANS_SERVER_KEY is not set")
		}
	case "stripe":
		if StripeSecretKey == "" || StripeWebhookSecret == "" {
			log.Println("[ERROR] STRIPE_SECRET_KEY / STRIPE_WEBHOOK_SECRET is not set")
		}
	default:
		log.Printf("[ERROR] unknown PAYMENT_GATEWAY %q", PaymentGateway)
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s=%q is not a number, using %d", key, v, def)
	}
	return def
}

func GetEnvBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// DonationConfig is the slice of settings the donation services depend on.
type DonationConfig struct {
	MinAmount  int64
	MinGoal    int64
	Currency   string
	SuccessURL string
	CancelURL  string
}

func DonationSettings() DonationConfig {
	return DonationConfig{
		MinAmount:  DonationMinAmount,
		MinGoal:    CampaignMinGoal,
		Currency:   PaymentCurrency,
		SuccessURL: ClientURL + "/donation/success?session_id={SESSION_ID}&campaign_id={CAMPAIGN_ID}",
		CancelURL:  ClientURL + "/campaign/{CAMPAIGN_ID}?payment=failed",
	}
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	l.LogLevel = level
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
