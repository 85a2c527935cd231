package babylon

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Secrets are notification credentials read from the environment.
type Secrets struct {
	SlackWebhook   string
	DiscordToken   string
	DiscordChannel string
	TelegramToken  string
	TelegramChatID string
}

// LoadSecrets loads dir/.env into the environment, without overriding
// variables already set, and reads the BABYLON_* credentials.
func LoadSecrets(dir string) (Secrets, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Secrets{}, err
	}
	return Secrets{
		SlackWebhook:   os.Getenv("BABYLON_SLACK_WEBHOOK"),
		DiscordToken:   os.Getenv("BABYLON_DISCORD_TOKEN"),
		DiscordChannel: os.Getenv("BABYLON_DISCORD_CHANNEL"),
		TelegramToken:  os.Getenv("BABYLON_TELEGRAM_TOKEN"),
		TelegramChatID: os.Getenv("BABYLON_TELEGRAM_CHAT"),
	}, nil
}
