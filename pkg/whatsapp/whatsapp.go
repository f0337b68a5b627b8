// Package whatsapp wraps a single whatsmeow session for the bot: QR
// pairing, the inbound message feed, and the outbound operations the
// command handlers need.
package whatsapp

import (
	"context"
	"encoding/base64"
	"errors"
	"runtime"
	"strings"
	"sync"
	"time"

	qrCode "github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/appstate"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/env"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/log"
)

const qrChannelWaitTimeout = 2 * time.Minute

var ErrNotConnected = errors.New("whatsapp client is not connected")

// Event is one inbound chat message, flattened to what the command
// loop needs. From is the sender phone in digits, without the JID
// server suffix.
type Event struct {
	From      string
	Chat      types.JID
	Sender    types.JID
	IsGroup   bool
	IsFromMe  bool
	Text      string
	Image     *waE2E.ImageMessage
	Timestamp time.Time
}

// HasImage reports whether the message carries downloadable image media.
func (e Event) HasImage() bool {
	return e.Image != nil
}

var (
	mu        sync.RWMutex
	datastore *sqlstore.Container
	client    *whatsmeow.Client
	qrPNG     string
	handler   func(Event)

	// WhatsApp throttles accounts that burst outbound messages.
	sendLimiter = rate.NewLimiter(rate.Every(time.Second), 3)
)

// SetMessageHandler registers the inbound message sink. Must be called
// before Connect.
func SetMessageHandler(fn func(Event)) {
	mu.Lock()
	handler = fn
	mu.Unlock()
}

// Init opens the whatsmeow datastore and builds the client. The device
// persists across restarts so pairing survives a redeploy.
func Init(ctx context.Context) error {
	dsn := env.MustGetEnvString("WHATSAPP_DATASTORE_URI")

	container, err := sqlstore.New(ctx, "pgx", dsn, nil)
	if err != nil {
		return err
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return err
	}

	store.DeviceProps.Os = proto.String(runtime.GOOS)
	store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()
	store.DeviceProps.RequireFullSync = proto.Bool(false)

	c := whatsmeow.NewClient(device, nil)
	c.EnableAutoReconnect = true
	c.AutoTrustIdentity = true
	c.AddEventHandler(handleEvents)

	mu.Lock()
	datastore = container
	client = c
	mu.Unlock()

	return nil
}

// Connect brings the session up. An unpaired device goes through the QR
// channel: the PNG is kept for the admin API and the raw code is logged
// so the operator can pair from the console.
func Connect(ctx context.Context) error {
	c := currentClient()
	if c == nil {
		return errors.New("whatsapp client is not initialized")
	}

	if c.Store.ID == nil {
		qrCtx, cancel := context.WithTimeout(ctx, qrChannelWaitTimeout)
		qrChan, err := c.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			return err
		}

		if err := c.Connect(); err != nil {
			cancel()
			return err
		}

		go func() {
			defer cancel()
			for evt := range qrChan {
				switch evt.Event {
				case "code":
					png, err := qrCode.Encode(evt.Code, qrCode.Medium, 256)
					if err != nil {
						log.Bot("").WithError(err).Error("Failed to encode pairing QR")
						continue
					}
					mu.Lock()
					qrPNG = base64.StdEncoding.EncodeToString(png)
					mu.Unlock()
					log.Bot("").Info("Pairing QR ready, fetch it from GET /wa/qr and scan within " + evt.Timeout.String())
				case whatsmeow.QRChannelSuccess.Event:
					mu.Lock()
					qrPNG = ""
					mu.Unlock()
					log.Bot("").Info("Device paired")
				case whatsmeow.QRChannelTimeout.Event:
					log.Bot("").Warn("Pairing QR timed out, restart to generate a new one")
				}
			}
		}()

		return nil
	}

	return c.Connect()
}

func handleEvents(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		log.Bot(BotPhone()).Info("WhatsApp session connected")
	case *events.Disconnected:
		log.Bot(BotPhone()).Warn("WhatsApp session disconnected")
	case *events.LoggedOut:
		log.Bot(BotPhone()).Error("Device logged out remotely, re-pairing required")
	case *events.Message:
		dispatchMessage(e)
	}
}

func dispatchMessage(e *events.Message) {
	mu.RLock()
	fn := handler
	mu.RUnlock()
	if fn == nil {
		return
	}

	msg := e.Message
	if msg == nil {
		return
	}

	text := msg.GetConversation()
	if text == "" && msg.ExtendedTextMessage != nil {
		text = msg.ExtendedTextMessage.GetText()
	}

	image := msg.GetImageMessage()
	if text == "" && image != nil {
		text = image.GetCaption()
	}

	fn(Event{
		From:      e.Info.Sender.User,
		Chat:      e.Info.Chat,
		Sender:    e.Info.Sender,
		IsGroup:   e.Info.Chat.Server == types.GroupServer,
		IsFromMe:  e.Info.IsFromMe,
		Text:      text,
		Image:     image,
		Timestamp: e.Info.Timestamp,
	})
}

// SendText delivers a plain text message to a phone number.
func SendText(ctx context.Context, phone string, text string) error {
	c := currentClient()
	if c == nil || !c.IsConnected() {
		return ErrNotConnected
	}

	if err := sendLimiter.Wait(ctx); err != nil {
		return err
	}

	remoteJID := types.NewJID(decomposePhone(phone), types.DefaultUserServer)
	extra := whatsmeow.SendRequestExtra{ID: c.GenerateMessageID()}
	content := &waE2E.Message{
		Conversation: proto.String(text),
	}

	_, err := c.SendMessage(ctx, remoteJID, content, extra)
	return err
}

// SetDisplayName updates the bot's push name via an app state patch.
func SetDisplayName(ctx context.Context, name string) error {
	c := currentClient()
	if c == nil || !c.IsConnected() {
		return ErrNotConnected
	}
	return c.SendAppState(ctx, appstate.BuildSettingPushName(name))
}

// SetProfilePhoto replaces the bot's own avatar. Passing the empty JID
// targets the logged-in account rather than a group.
func SetProfilePhoto(ctx context.Context, photo []byte) error {
	c := currentClient()
	if c == nil || !c.IsConnected() {
		return ErrNotConnected
	}
	_, err := c.SetGroupPhoto(ctx, types.EmptyJID, photo)
	return err
}

// DownloadImage fetches the media bytes for an inbound image message.
func DownloadImage(ctx context.Context, image *waE2E.ImageMessage) ([]byte, error) {
	c := currentClient()
	if c == nil {
		return nil, ErrNotConnected
	}
	return c.Download(ctx, image)
}

func IsConnected() bool {
	c := currentClient()
	return c != nil && c.IsConnected() && c.IsLoggedIn()
}

// BotName returns the account's current push name, or empty when the
// device is not paired yet.
func BotName() string {
	c := currentClient()
	if c == nil {
		return ""
	}
	return c.Store.PushName
}

// BotPhone returns the bot's own phone digits, or empty before pairing.
func BotPhone() string {
	c := currentClient()
	if c == nil || c.Store.ID == nil {
		return ""
	}
	return c.Store.ID.User
}

// QRCode returns the pending pairing QR as a base64 PNG, or empty when
// no pairing is in progress.
func QRCode() string {
	mu.RLock()
	defer mu.RUnlock()
	return qrPNG
}

func Disconnect() {
	c := currentClient()
	if c != nil {
		c.Disconnect()
	}
}

func currentClient() *whatsmeow.Client {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

func decomposePhone(phone string) string {
	if strings.ContainsRune(phone, '@') {
		phone = strings.SplitN(phone, "@", 2)[0]
	}
	return strings.TrimPrefix(strings.TrimSpace(phone), "+")
}
