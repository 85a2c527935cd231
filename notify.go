package babylon

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/slack-go/slack"
	"go.uber.org/multierr"
)

// ErrUnsupportedOS is returned by LocalNotifier on unsupported platforms.
var ErrUnsupportedOS = errors.New("notify: unsupported OS for local notifications")

// Notifier sends fire-and-forget notifications to the human operator.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// cmdRunner abstracts exec.Cmd.Run for testing.
type cmdRunner interface {
	Run() error
}

// cmdFactory creates a cmdRunner from command name and args.
type cmdFactory func(ctx context.Context, name string, args ...string) cmdRunner

func defaultCmdFactory(ctx context.Context, name string, args ...string) cmdRunner {
	return exec.CommandContext(ctx, name, args...)
}

// LocalNotifier sends desktop notifications using OS-native commands.
// darwin: osascript, linux: notify-send, others: returns ErrUnsupportedOS.
type LocalNotifier struct {
	makeCmd cmdFactory
	forceOS string // for testing; empty = use runtime.GOOS
}

func (n *LocalNotifier) os() string {
	if n.forceOS != "" {
		return n.forceOS
	}
	return runtime.GOOS
}

func (n *LocalNotifier) factory() cmdFactory {
	if n.makeCmd != nil {
		return n.makeCmd
	}
	return defaultCmdFactory
}

func (n *LocalNotifier) Notify(ctx context.Context, title, message string) error {
	mk := n.factory()

	switch n.os() {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return mk(ctx, "osascript", "-e", script).Run()
	case "linux":
		return mk(ctx, "notify-send", title, message).Run()
	default:
		return ErrUnsupportedOS
	}
}

// CmdNotifier executes a user-provided shell command for notifications.
// The template may contain {title} and {message} placeholders.
type CmdNotifier struct {
	cmdTemplate string
	makeCmd     cmdFactory
}

func NewCmdNotifier(cmdTemplate string) *CmdNotifier {
	return &CmdNotifier{cmdTemplate: cmdTemplate}
}

func (n *CmdNotifier) factory() cmdFactory {
	if n.makeCmd != nil {
		return n.makeCmd
	}
	return defaultCmdFactory
}

func (n *CmdNotifier) Notify(ctx context.Context, title, message string) error {
	expanded := strings.ReplaceAll(n.cmdTemplate, "{title}", title)
	expanded = strings.ReplaceAll(expanded, "{message}", message)
	return n.factory()(ctx, "sh", "-c", expanded).Run()
}

// SlackNotifier posts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

func (n *SlackNotifier) Notify(ctx context.Context, title, message string) error {
	return slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{
		Text: fmt.Sprintf("*%s*\n%s", title, message),
	})
}

// DiscordNotifier posts to a Discord channel as a bot.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	return &DiscordNotifier{session: s, channelID: channelID}, nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, title, message string) error {
	_, err := n.session.ChannelMessageSend(n.channelID, fmt.Sprintf("**%s**\n%s", title, message), discordgo.WithContext(ctx))
	return err
}

// TelegramNotifier sends a message to a Telegram chat. The bot is created
// on first use because creating it calls the API.
type TelegramNotifier struct {
	token  string
	chatID int64
}

func NewTelegramNotifier(token, chatID string) (*TelegramNotifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram chat id %q: %w", chatID, err)
	}
	return &TelegramNotifier{token: token, chatID: id}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := tgbotapi.NewBotAPI(n.token)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	_, err = bot.Send(tgbotapi.NewMessage(n.chatID, title+"\n"+message))
	return err
}

// MultiNotifier fans a notification out to every notifier and combines
// their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, title, message string) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.Notify(ctx, title, message))
	}
	return err
}

// NopNotifier is a no-op notifier for quiet mode or testing.
type NopNotifier struct{}

func (n *NopNotifier) Notify(_ context.Context, _, _ string) error {
	return nil
}

// NotifierFromConfig builds the notifier for the enabled channels. A
// channel enabled without its credentials is a configuration error.
func NotifierFromConfig(cfg NotifyConfig, s Secrets) (Notifier, error) {
	var out MultiNotifier
	var errs error
	if cfg.Slack {
		if s.SlackWebhook == "" {
			errs = multierr.Append(errs, errors.New("notify.slack: BABYLON_SLACK_WEBHOOK is not set"))
		} else {
			out = append(out, NewSlackNotifier(s.SlackWebhook))
		}
	}
	if cfg.Discord {
		if s.DiscordToken == "" || s.DiscordChannel == "" {
			errs = multierr.Append(errs, errors.New("notify.discord: BABYLON_DISCORD_TOKEN and BABYLON_DISCORD_CHANNEL are required"))
		} else if d, err := NewDiscordNotifier(s.DiscordToken, s.DiscordChannel); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			out = append(out, d)
		}
	}
	if cfg.Telegram {
		if s.TelegramToken == "" || s.TelegramChatID == "" {
			errs = multierr.Append(errs, errors.New("notify.telegram: BABYLON_TELEGRAM_TOKEN and BABYLON_TELEGRAM_CHAT are required"))
		} else if tg, err := NewTelegramNotifier(s.TelegramToken, s.TelegramChatID); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			out = append(out, tg)
		}
	}
	if cfg.Desktop {
		out = append(out, &LocalNotifier{})
	}
	if cfg.Cmd != "" {
		out = append(out, NewCmdNotifier(cfg.Cmd))
	}
	if errs != nil {
		return nil, errs
	}
	if len(out) == 0 {
		return &NopNotifier{}, nil
	}
	return out, nil
}
