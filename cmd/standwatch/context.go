package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"standwatch/internal/config"
	"standwatch/internal/logging"
	"standwatch/internal/queueapi"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// quietClient builds an API client for one-shot commands, which report
// outcomes on stdout rather than through the logger.
func (c *commandContext) quietClient() (*queueapi.Client, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	return queueapi.NewClient(cfg, logging.NewNop()), cfg, nil
}

// resolveLogin returns the configured visitor login and its backend ID.
func (c *commandContext) resolveLogin(ctx context.Context, client *queueapi.Client, cfg *config.Config) (string, int64, error) {
	login := strings.TrimSpace(cfg.Identity.Login)
	if login == "" {
		return "", 0, fmt.Errorf("no login configured; set identity.login in the config file")
	}
	userID, err := client.ResolveUserID(ctx, login)
	if err != nil {
		return "", 0, fmt.Errorf("resolve login %q: %w", login, err)
	}
	return login, userID, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
