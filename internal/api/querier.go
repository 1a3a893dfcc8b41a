package api

import (
	"fmt"

	"github.com/d1mk9/aiproxy/configs"
)

// NewQuerier builds the query capability selected by cfg.Backend.
func NewQuerier(cfg *configs.Config) (Querier, error) {
	switch cfg.Backend {
	case configs.BackendCLI:
		return NewCLIQuerier(CLIOptions{
			Bin:          cfg.ClaudeBin,
			Model:        cfg.ClaudeModel,
			WorkDir:      cfg.ClaudeWorkDir,
			SystemPrompt: cfg.SystemPrompt,
		}), nil
	case configs.BackendAPI:
		return NewMessagesClient(MessagesOptions{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.APIBaseURL,
			Model:        cfg.APIModel,
			MaxTokens:    cfg.APIMaxTokens,
			SystemPrompt: cfg.SystemPrompt,
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
