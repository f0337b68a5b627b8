package internal

import (
	"context"

	"github.com/RasyaGtps/siaku-whatsapp-service/internal/admin"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/bot"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/session"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/siakad"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/store"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/verify"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/env"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/log"
	pkgWhatsApp "github.com/RasyaGtps/siaku-whatsapp-service/pkg/whatsapp"

	"go.mau.fi/whatsmeow/proto/waE2E"
)

var (
	identityStore *store.Store
	codeFlow      *verify.Flow
	engine        *bot.Engine
)

// waChannel adapts the package-level whatsapp functions to the
// interfaces the bot engine and session manager expect.
type waChannel struct{}

func (waChannel) SendText(ctx context.Context, phone string, text string) error {
	return pkgWhatsApp.SendText(ctx, phone, text)
}

func (waChannel) SetDisplayName(ctx context.Context, name string) error {
	return pkgWhatsApp.SetDisplayName(ctx, name)
}

func (waChannel) SetProfilePhoto(ctx context.Context, photo []byte) error {
	return pkgWhatsApp.SetProfilePhoto(ctx, photo)
}

func (waChannel) DownloadImage(ctx context.Context, image *waE2E.ImageMessage) ([]byte, error) {
	return pkgWhatsApp.DownloadImage(ctx, image)
}

func (waChannel) BotName() string {
	return pkgWhatsApp.BotName()
}

func (waChannel) IsConnected() bool {
	return pkgWhatsApp.IsConnected()
}

// Startup builds the shared state, restores the persisted snapshot,
// connects the WhatsApp session and starts the command worker. The
// worker stops when ctx is cancelled.
func Startup(ctx context.Context) error {
	log.Print(nil).Info("Running Startup Tasks")

	persister := store.NewFilePersister(env.GetEnvStringOrDefault("DATA_FILE", "data.json"))
	identityStore = store.New(persister)
	if err := identityStore.LoadSnapshot(); err != nil {
		return err
	}
	log.Print(nil).
		WithField("blocked", identityStore.BlockedCount()).
		WithField("sessions", identityStore.SessionCount()).
		Info("Identity snapshot restored")

	codeFlow = verify.NewFlow(identityStore, env.GetEnvDurationOrDefault("VERIFICATION_CODE_TTL", verify.CodeTTL))

	backend := siakad.NewClient()
	channel := waChannel{}
	sessions := session.NewManager(identityStore, backend, channel)

	engine = bot.NewEngine(identityStore, codeFlow, sessions, backend, channel)

	pkgWhatsApp.SetMessageHandler(engine.Enqueue)

	if err := pkgWhatsApp.Init(ctx); err != nil {
		return err
	}
	if err := pkgWhatsApp.Connect(ctx); err != nil {
		return err
	}

	admin.Init(identityStore, codeFlow)

	go engine.Run(ctx)

	return nil
}
