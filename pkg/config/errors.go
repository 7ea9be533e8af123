package config

import "errors"

var (
	// ErrConfigFileNotFound is returned when config file is not found
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrNameRequired is returned when the font name is empty
	ErrNameRequired = errors.New("iconfont.name is required")

	// ErrInvalidName is returned when the font name is not usable as a file name
	ErrInvalidName = errors.New("iconfont.name must contain only letters, digits, '.', '_' and '-'")

	// ErrInvalidIconPrefix is returned when the icon prefix is not a CSS identifier
	ErrInvalidIconPrefix = errors.New("iconfont.icon_prefix must be a CSS identifier")

	// ErrIncludeRequired is returned when the icon directory is empty
	ErrIncludeRequired = errors.New("iconfont.include is required")

	// ErrInvalidConverterType is returned for an unknown converter type
	ErrInvalidConverterType = errors.New("invalid converter type (allowed: builtin, exec)")

	// ErrExecCommandRequired is returned when the exec converter has no command
	ErrExecCommandRequired = errors.New("converter.exec.command is required when converter type is exec")

	// ErrInvalidCacheType is returned for an unknown cache backend
	ErrInvalidCacheType = errors.New("invalid cache kvs type (allowed: memory, leveldb, redis)")

	// ErrInvalidDuration is returned when a duration field does not parse
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidPort is returned for a port outside 0-65535
	ErrInvalidPort = errors.New("invalid server port")

	// ErrOutDirRequired is returned when the build output directory is empty
	ErrOutDirRequired = errors.New("build.out_dir is required")
)
