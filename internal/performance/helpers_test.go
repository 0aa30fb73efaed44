package performance

import (
	"time"

	"vendor-service/pkg/config"
)

func testWorkerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Concurrency:  1,
		PollInterval: 10 * time.Millisecond,
		RetryDelay:   time.Hour,
		StaleAfter:   time.Hour,
		MaxAttempts:  3,
	}
}
