package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"floatsync/internal/config"
	"floatsync/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// diagnostic tees a debug-level JSON log beside the configured output.
	diagnostic bool

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				switch level {
				case "debug", "info", "warn", "warning", "error":
					cfg.Logging.Level = level
				default:
					c.configErr = fmt.Errorf("--log-level must be debug, info, warn or error, got %q", level)
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// ensureLogger builds the process logger and prunes old log files. The active
// log file is never pruned.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logging: %w", err)
			return
		}
		debugPath := debugLogPath(cfg)
		if c.diagnostic {
			debugLogger, err := logging.New(logging.Options{
				Level:       "debug",
				Format:      "json",
				OutputPaths: []string{debugPath},
				Development: true,
			})
			if err != nil {
				c.loggerErr = fmt.Errorf("init debug logging: %w", err)
				return
			}
			logger = logging.TeeLogger(logger, debugLogger.Handler())
			logger.Info("diagnostic mode enabled",
				logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
				logging.String("debug_log_path", debugPath),
			)
		}
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
			Dir:     cfg.Paths.LogDir,
			Pattern: "floatsync*.log",
			Exclude: []string{filepath.Join(cfg.Paths.LogDir, "floatsync.log"), debugPath},
		})
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func debugLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "floatsync-debug.log")
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
