package common

// File permission constants for files the tool writes
const (
	// FilePermissionSecure is used for configuration files
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for charts, reports and cleaned datasets
	FilePermissionNormal = 0644

	// DirPermissionSecure is used for the configuration directory
	DirPermissionSecure = 0700

	// DirPermissionNormal is used for output directories
	DirPermissionNormal = 0755
)
