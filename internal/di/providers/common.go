package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// ServerVersion is stamped into backup manifests and startup logs.
	ServerVersion = "1.0.0"
)
