package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxUploadSizeMB = 10
	DefaultCleanupInterval = 1 * time.Hour

	// Archive defaults
	DefaultArchivePath       = "transcript.html"
	DefaultContainerIDPrefix = "chat-"
	DefaultAttachmentsPrefix = "attachments"
	DefaultAvatarURL         = "https://cdn.discordapp.com/embed/avatars/0.png"

	// Processing defaults
	DefaultTaskTimeout = 600 * time.Second
	DefaultCacheTTL    = 60 * time.Minute

	// Logging defaults
	DefaultLogLevel = "info"
)
