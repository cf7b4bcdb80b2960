package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port           string
	ConsulAddress  string
	ServiceName    string
	ServiceID      string
	ServiceAddress string
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RabbitURI      string
	JWTSecret      string
	JWTExpired     int64
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	MailFrom       string
	FEAddress      string
}

func New() *Config {
	jwt_expired_str := getEnv("TOKEN_EXPIRY_TIME", "24")
	jwt_expired, _ := strconv.Atoi(jwt_expired_str)
	redis_db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	smtp_port, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))

	return &Config{
		Port:           getEnv("PORT", "9200"),
		ConsulAddress:  getEnv("CONSUL_ADDR", ""),
		ServiceName:    getEnv("FEATURE_SERVICE_NAME", "feature-gate-service"),
		ServiceID:      getEnv("FEATURE_SERVICE_NAME", "feature-gate-service") + "-" + getEnv("HOSTNAME", "1"),
		ServiceAddress: getEnv("FEATURE_SERVICE_ADDRESS", "feature-gate-service"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("FEATURE_SERVICE_MONGO_DB", "eddyhub"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PWD", ""),
		RedisDB:        redis_db,
		RabbitURI:      getEnv("RABBITMQ_URI", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTExpired:     int64(jwt_expired),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       smtp_port,
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@eddyhub.app"),
		FEAddress:      getEnv("FE_ADDR", "http://localhost:5173"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("ENV %s not set, using default", key)
	return fallback
}
