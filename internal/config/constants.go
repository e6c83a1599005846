package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./erratas.db"

	// DefaultMaxUploadSizeMB bounds the size of an uploaded highlights file
	DefaultMaxUploadSizeMB = 64
)
