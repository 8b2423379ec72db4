package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              int
	ModelPath         string
	ModelConfigPath   string
	UploadDirectory   string // scratch dir for staged uploads
	StaticDirectory   string // served at /static, annotated images land here
	DatabasePath      string
	LogDirectory      string
	FrameWidth        int
	FrameHeight       int
	FrameIntervalMs   int // pacing between processed video frames (~30fps at 33)
	StreamPollMs      int // MJPEG endpoint poll interval when the slot is empty
	QueuePollMs       int // ingest worker idle poll interval
	JPEGQuality       int
	BroadcastEveryNth int // push percentages to viewers every N frames
	ConfidenceMin     float64
}

func Load() *Config {
	// Optional .env; absence is not an error.
	_ = godotenv.Load()

	return &Config{
		Port:              getEnvAsInt("PORT", 5000),
		ModelPath:         getEnv("MODEL_PATH", filepath.Join(".", "models", "strawberry.pb")),
		ModelConfigPath:   getEnv("MODEL_CONFIG_PATH", filepath.Join(".", "models", "strawberry.pbtxt")),
		UploadDirectory:   getEnv("UPLOAD_DIR", filepath.Join("static", "uploads")),
		StaticDirectory:   getEnv("STATIC_DIR", "static"),
		DatabasePath:      getEnv("DB_PATH", filepath.Join(".", "captures.db")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		FrameWidth:        getEnvAsInt("FRAME_WIDTH", 640),
		FrameHeight:       getEnvAsInt("FRAME_HEIGHT", 480),
		FrameIntervalMs:   getEnvAsInt("FRAME_INTERVAL_MS", 33),
		StreamPollMs:      getEnvAsInt("STREAM_POLL_MS", 10),
		QueuePollMs:       getEnvAsInt("QUEUE_POLL_MS", 100),
		JPEGQuality:       getEnvAsInt("JPEG_QUALITY", 90),
		BroadcastEveryNth: getEnvAsInt("BROADCAST_EVERY_NTH", 10),
		ConfidenceMin:     getEnvAsFloat("CONFIDENCE_MIN", 0.5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
