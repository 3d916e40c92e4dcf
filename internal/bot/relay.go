package bot

import (
	"log/slog"
	"sync"

	"github.com/fangligamedev/AgentLinkin/internal/discord"
	"github.com/fangligamedev/AgentLinkin/internal/session"
)

// Relay posts every session's updates to one Discord channel.
type Relay struct {
	manager   *session.Manager
	client    discord.Client
	channelID string

	mu          sync.Mutex
	queue       *session.Queue
	unsubscribe func()
}

func NewRelay(manager *session.Manager, client discord.Client, channelID string) *Relay {
	return &Relay{
		manager:   manager,
		client:    client,
		channelID: channelID,
	}
}

func (r *Relay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queue != nil {
		return
	}
	r.queue = session.NewQueue(r.post)
	r.unsubscribe = r.manager.Hub().SubscribeAll(r.queue.Push)
	slog.Info("discord relay started", "channel_id", r.channelID)
}

// Stop unsubscribes and flushes updates that were already queued.
func (r *Relay) Stop() {
	r.mu.Lock()
	queue, unsubscribe := r.queue, r.unsubscribe
	r.queue, r.unsubscribe = nil, nil
	r.mu.Unlock()
	if queue == nil {
		return
	}
	unsubscribe()
	queue.Close()
}

func (r *Relay) post(u session.Update) {
	text, ok := FormatUpdate(u)
	if !ok {
		return
	}
	if err := r.client.SendChannelMessage(r.channelID, text); err != nil {
		slog.Error("failed to relay session update", "session_id", u.SessionID, "update_type", u.Type, "channel_id", r.channelID, "error", err)
	}
}
