package fontgen

import (
	"fmt"
	"strings"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/shared/kvs"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
)

// New builds the converter described by cfg, wrapped in a cache when
// cfg.Cache is enabled. The returned close function releases the cache
// store and is never nil.
func New(cfg *config.Config, logger logging.Logger) (Converter, func() error, error) {
	logger = logger.WithModule("fontgen")
	noop := func() error { return nil }

	var (
		conv  Converter
		scope string
	)
	switch cfg.Converter.Type {
	case "builtin", "":
		conv, scope = NewBuiltinConverter(logger), "builtin"
	case "exec":
		ec, err := NewExecConverter(cfg.Converter.Exec, logger)
		if err != nil {
			return nil, noop, err
		}
		conv = ec
		scope = "exec:" + strings.Join(append([]string{cfg.Converter.Exec.Command}, cfg.Converter.Exec.Args...), " ")
	default:
		return nil, noop, fmt.Errorf("%w: %q", config.ErrInvalidConverterType, cfg.Converter.Type)
	}

	if !cfg.Cache.Enabled {
		return conv, noop, nil
	}

	ttl, err := cfg.Cache.GetTTL()
	if err != nil {
		return nil, noop, fmt.Errorf("%w: cache.ttl: %v", config.ErrInvalidDuration, err)
	}
	store, err := kvs.New(cfg.Cache.KVS)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open generation cache: %w", err)
	}
	logger.Info("Generation cache enabled", "type", cfg.Cache.KVS.Type, "ttl", ttl)

	cached := NewCachingConverter(conv, scope, store, ttl, logger)
	return cached, cached.Close, nil
}
