package fontgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ideamans/svgiconfont/pkg/config"
	"github.com/ideamans/svgiconfont/pkg/shared/logging"
	"github.com/ideamans/svgiconfont/pkg/source"
)

// ErrMalformedOutput is returned when an external converter prints
// something other than a result document
var ErrMalformedOutput = errors.New("malformed converter output")

// ExecConverter delegates conversion to an external command. The request
// {"icons":[{"name","content"}],"options":{...}} is written to stdin and a
// JSON Result with base64 font buffers is read from stdout.
type ExecConverter struct {
	command string
	args    []string
	env     []string
	dir     string
	timeout time.Duration
	logger  logging.Logger
}

type execRequest struct {
	Icons   []source.Icon `json:"icons"`
	Options Options       `json:"options"`
}

// NewExecConverter creates an ExecConverter from cfg
func NewExecConverter(cfg config.ExecConfig, logger logging.Logger) (*ExecConverter, error) {
	if cfg.Command == "" {
		return nil, config.ErrExecCommandRequired
	}
	timeout := time.Duration(0)
	if cfg.Timeout != "" {
		d, err := cfg.GetTimeout()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidDuration, err)
		}
		timeout = d
	}
	return &ExecConverter{
		command: cfg.Command,
		args:    cfg.Args,
		env:     cfg.Env,
		dir:     cfg.Dir,
		timeout: timeout,
		logger:  logger.WithModule("exec"),
	}, nil
}

// Convert implements Converter
func (c *ExecConverter) Convert(ctx context.Context, icons []source.Icon, opts Options) (*Result, error) {
	if icons == nil {
		icons = []source.Icon{}
	}
	req, err := json.Marshal(execRequest{Icons: icons, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Dir = c.dir
	cmd.Stdin = bytes.NewReader(req)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		c.logger.Debug("Converter stderr", "command", c.command, "stderr", msg)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %s: %w", c.command, c.timeout, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", c.command, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", c.command, err)
	}

	var res Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if res.CSS == "" {
		return nil, fmt.Errorf("%w: missing css", ErrMalformedOutput)
	}

	c.logger.Debug("External converter finished", "command", c.command, "duration", time.Since(start))
	return &res, nil
}
