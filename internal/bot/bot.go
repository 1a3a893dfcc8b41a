package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/d1mk9/aiproxy/configs"
	"github.com/d1mk9/aiproxy/internal/metrics"
	"github.com/d1mk9/aiproxy/internal/utils"
)

const (
	// maxMessageLen is Telegram's limit for a text message.
	maxMessageLen = 4096
	queueSize     = 32
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type post struct {
	prompt   string
	response string
}

// Notifier publishes successful query results to a Telegram chat or channel.
// A nil *Notifier is valid and does nothing.
type Notifier struct {
	sender sender
	chat   string

	mu     sync.RWMutex
	closed bool
	queue  chan post
	done   chan struct{}
}

// NewNotifier connects to Telegram when TELEGRAM_APITOKEN and TELEGRAM_CHAT
// are set; otherwise it returns a nil Notifier.
func NewNotifier(cfg *configs.Config) (*Notifier, error) {
	if !cfg.NotifierEnabled() {
		log.Info("telegram notifier disabled")
		return nil, nil
	}
	if _, err := chattable(cfg.BotChat, ""); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.Infof("telegram account %s authorized, publishing to %s", api.Self.UserName, cfg.BotChat)
	return newNotifier(api, cfg.BotChat), nil
}

func newNotifier(s sender, chat string) *Notifier {
	n := &Notifier{
		sender: s,
		chat:   chat,
		queue:  make(chan post, queueSize),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify queues a result without blocking; it is dropped when the queue is
// full or the notifier is closed.
func (n *Notifier) Notify(prompt, response string) {
	if n == nil {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case n.queue <- post{prompt: prompt, response: response}:
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		log.Warn("telegram queue full, dropping notification")
	}
}

// Close stops accepting results and waits for queued ones to be sent.
func (n *Notifier) Close(ctx context.Context) error {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram: %d notifications not sent: %w", len(n.queue), ctx.Err())
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for p := range n.queue {
		if err := n.send(p); err != nil {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			log.WithError(err).Error("telegram.send.failed")
			continue
		}
		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	}
}

func (n *Notifier) send(p post) error {
	msg, err := chattable(n.chat, formatPost(p))
	if err != nil {
		return err
	}
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram send to %s: %w", n.chat, err)
	}
	return nil
}

// chattable addresses text to a channel (@name) or a numeric chat id.
func chattable(chat, text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(chat, "@") {
		return tgbotapi.NewMessageToChannel(chat, text), nil
	}
	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid TELEGRAM_CHAT %q: want @channel or numeric chat id", chat)
	}
	return tgbotapi.NewMessage(chatID, text), nil
}

func formatPost(p post) string {
	prompt := utils.Truncate(p.prompt, 512)
	text := fmt.Sprintf("Prompt:\n%s\n\nResponse:\n%s", prompt, p.response)
	return utils.Truncate(text, maxMessageLen)
}
