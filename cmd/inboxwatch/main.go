// inboxwatch tails a user's inbox from the terminal: it polls the server
// on the configured interval and prints the conversation list, and the
// transcript of the selected counterpart, whenever they change.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Zephyr-r/Zephyrus/config"
	"github.com/Zephyr-r/Zephyrus/internal/inbox"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	baseURL := os.Getenv("API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.AppPort
	}
	token := os.Getenv("API_TOKEN")
	if token == "" {
		log.Fatal("API_TOKEN is required")
	}

	var seed *inbox.Seed
	if raw := os.Getenv("INBOX_COUNTERPART"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			log.Fatalf("Invalid INBOX_COUNTERPART %q", raw)
		}
		seed = &inbox.Seed{
			CounterpartID: uint(id),
			Username:      os.Getenv("INBOX_COUNTERPART_NAME"),
		}
	}

	client := inbox.NewClient(baseURL, token)
	poller := inbox.NewPoller(client, logger, cfg.InboxPollInterval, seed)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go poller.Run(ctx)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var lastUnread int64 = -1
	lastTranscript := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var unread int64
			for _, c := range poller.Conversations() {
				unread += c.UnreadCount
			}
			transcript := poller.Transcript()
			if unread == lastUnread && len(transcript) == lastTranscript {
				continue
			}
			lastUnread = unread
			lastTranscript = len(transcript)

			for _, c := range poller.Conversations() {
				preview := ""
				if c.LastMessage != nil {
					preview = c.LastMessage.Content
				}
				logger.Info("conversation",
					zap.Uint("counterpart_id", c.ID),
					zap.String("username", c.Username),
					zap.Int64("unread", c.UnreadCount),
					zap.String("last", preview))
			}
			if selected := poller.Selected(); selected != 0 {
				logger.Info("transcript",
					zap.Uint("counterpart_id", selected),
					zap.Int("messages", len(transcript)))
			}
		}
	}
}
