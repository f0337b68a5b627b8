// Package bot is the chat command loop: it consumes inbound WhatsApp
// messages, enforces block and ownership rules, and dispatches the
// command handlers.
package bot

import (
	"context"
	"strings"

	"github.com/forPelevin/gomoji"

	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/RasyaGtps/siaku-whatsapp-service/internal/session"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/siakad"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/store"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/verify"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/env"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/log"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/whatsapp"
)

// Channel is the outbound side of the chat transport.
type Channel interface {
	SendText(ctx context.Context, phone string, text string) error
	SetDisplayName(ctx context.Context, name string) error
	SetProfilePhoto(ctx context.Context, photo []byte) error
	DownloadImage(ctx context.Context, image *waE2E.ImageMessage) ([]byte, error)
	BotName() string
	IsConnected() bool
}

// NIMDirectory is the backend lookup the /nim command needs.
type NIMDirectory interface {
	LookupNIM(ctx context.Context, nim string) (*siakad.Mahasiswa, error)
}

// Engine processes messages one at a time from a buffered queue. A
// single worker keeps command effects ordered per the arrival order of
// the whatsmeow event handler.
type Engine struct {
	store     *store.Store
	flow      *verify.Flow
	sessions  *session.Manager
	directory NIMDirectory
	channel   Channel
	queue     chan whatsapp.Event
}

func NewEngine(st *store.Store, flow *verify.Flow, sessions *session.Manager, directory NIMDirectory, channel Channel) *Engine {
	return &Engine{
		store:     st,
		flow:      flow,
		sessions:  sessions,
		directory: directory,
		channel:   channel,
		queue:     make(chan whatsapp.Event, env.GetEnvIntOrDefault("BOT_QUEUE_SIZE", 256)),
	}
}

// Enqueue hands an inbound event to the worker. When the queue is full
// the event is dropped with a warning rather than blocking the
// whatsmeow event handler.
func (e *Engine) Enqueue(evt whatsapp.Event) {
	select {
	case e.queue <- evt:
	default:
		log.Bot(evt.From).Warn("Command queue full, dropping message")
	}
}

// Run consumes the queue until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-e.queue:
			e.handle(ctx, evt)
		}
	}
}

func (e *Engine) handle(ctx context.Context, evt whatsapp.Event) {
	if evt.IsFromMe || evt.IsGroup {
		return
	}

	phone := evt.From
	text := strings.TrimSpace(evt.Text)

	if text == "" && !evt.HasImage() {
		return
	}
	if text != "" && !evt.HasImage() && strings.TrimSpace(gomoji.RemoveEmojis(text)) == "" {
		return
	}

	log.Bot(phone).Info("Message received: " + text)

	if e.store.IsBlocked(phone) {
		e.reply(ctx, phone, replyBlocked)
		return
	}

	cmd := Parse(text)

	switch cmd.Name {
	case "/jadiowner":
		e.handleJadiOwner(ctx, phone)
	case "/cekowner":
		e.handleCekOwner(ctx, phone)
	case "/keluarowner":
		e.handleKeluarOwner(ctx, phone)
	case "/menu", "/help":
		e.handleMenu(ctx, phone)
	case "/gantinama":
		e.handleGantiNama(ctx, phone, cmd)
	case "/gantipp":
		e.handleGantiPP(ctx, phone)
	case "/block":
		e.handleBlock(ctx, phone, cmd)
	case "/unblock":
		e.handleUnblock(ctx, phone, cmd)
	case "/listblock":
		e.handleListBlocked(ctx, phone)
	case "/infobot":
		e.handleInfoBot(ctx, phone)
	case "/login":
		e.handleLogin(ctx, phone, cmd)
	case "/logout":
		e.handleLogout(ctx, phone)
	case "/profile":
		e.handleProfile(ctx, phone)
	case "/nim":
		e.handleCheckNIM(ctx, phone, cmd)
	default:
		if cmd.IsVerificationCode() {
			e.handleVerificationCode(ctx, phone, cmd.Raw)
			return
		}
		if evt.HasImage() && (cmd.Raw == "setpp" || cmd.Raw == "/setpp") {
			e.handleSetProfilePhoto(ctx, phone, evt.Image)
		}
	}
}

func (e *Engine) reply(ctx context.Context, phone string, text string) {
	if err := e.channel.SendText(ctx, phone, text); err != nil {
		log.Bot(phone).WithError(err).Error("Failed to send reply")
	}
}

// requireOwner replies with a refusal and returns false when phone is
// not the current owner.
func (e *Engine) requireOwner(ctx context.Context, phone string) bool {
	if !e.store.IsOwner(phone) {
		e.reply(ctx, phone, replyOwnerOnly)
		return false
	}
	return true
}

// requireSession replies with a login prompt and returns false when
// phone has no active session.
func (e *Engine) requireSession(ctx context.Context, phone string) (store.Session, bool) {
	active, err := e.sessions.Profile(phone)
	if err != nil {
		e.reply(ctx, phone, replyLoginRequired)
		return store.Session{}, false
	}
	return active, true
}
