package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/RasyaGtps/siaku-whatsapp-service/internal/session"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/siakad"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/store"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/verify"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/log"
)

// Push names longer than this get rejected by WhatsApp.
const maxDisplayNameGraphemes = 25

func (e *Engine) handleJadiOwner(ctx context.Context, phone string) {
	code, _, err := e.flow.RequestOwnership(phone)
	switch {
	case errors.Is(err, verify.ErrAlreadyOwner):
		e.reply(ctx, phone, replyAlreadyOwner)
		return
	case errors.Is(err, verify.ErrOwnerSlotTaken):
		e.reply(ctx, phone, replyOwnerTaken)
		return
	case err != nil:
		log.Bot(phone).WithError(err).Error("Failed to issue verification code")
		return
	}

	// The code goes to the operator console only, never to the chat.
	fmt.Println("\n═══════════════════════════════════════════════════════")
	fmt.Println("🔐 KODE VERIFIKASI OWNER BOT")
	fmt.Println("📱 Phone: " + phone)
	fmt.Println("🔑 Kode: " + code)
	fmt.Println("⏰ Berlaku: 5 menit")
	fmt.Println("═══════════════════════════════════════════════════════")

	e.reply(ctx, phone, replyCodeGenerated)
}

func (e *Engine) handleVerificationCode(ctx context.Context, phone string, code string) {
	err := e.flow.SubmitCode(phone, code)
	switch {
	case errors.Is(err, verify.ErrNoPendingRequest):
		return
	case errors.Is(err, verify.ErrExpired):
		e.reply(ctx, phone, replyCodeExpired)
		return
	case errors.Is(err, verify.ErrMismatch):
		e.reply(ctx, phone, replyCodeMismatch)
		return
	}

	if err := e.store.AddOwner(phone); err != nil {
		if errors.Is(err, store.ErrAlreadyOwned) {
			e.reply(ctx, phone, replyOwnerTaken)
			return
		}
		log.Bot(phone).WithError(err).Error("Failed to register owner")
	}

	log.Bot(phone).Info("New owner registered")
	e.reply(ctx, phone, replyOwnerGranted)
}

func (e *Engine) handleCekOwner(ctx context.Context, phone string) {
	if e.store.IsOwner(phone) {
		e.reply(ctx, phone, replyCekOwner(phone))
		return
	}
	e.reply(ctx, phone, replyNotOwner)
}

func (e *Engine) handleKeluarOwner(ctx context.Context, phone string) {
	if err := e.store.RemoveOwner(phone); err != nil {
		if errors.Is(err, store.ErrNotOwner) {
			e.reply(ctx, phone, replyOwnerOnly)
			return
		}
		log.Bot(phone).WithError(err).Error("Failed to persist owner removal")
	}

	log.Bot(phone).Warn("Owner released ownership")
	e.reply(ctx, phone, replyOwnerReleased)
}

func (e *Engine) handleMenu(ctx context.Context, phone string) {
	_, loggedIn := e.store.GetSession(phone)
	e.reply(ctx, phone, replyMenu(e.store.IsOwner(phone), loggedIn))
}

func (e *Engine) handleGantiNama(ctx context.Context, phone string, cmd Command) {
	if !e.requireOwner(ctx, phone) {
		return
	}

	name := cmd.ArgText()
	if name == "" {
		e.reply(ctx, phone, replyGantiNamaUsage)
		return
	}
	if uniseg.GraphemeClusterCount(name) > maxDisplayNameGraphemes {
		e.reply(ctx, phone, replyNameTooLong)
		return
	}

	if err := e.channel.SetDisplayName(ctx, name); err != nil {
		log.Bot(phone).WithError(err).Error("Failed to change display name")
		e.reply(ctx, phone, "❌ Gagal mengubah nama: "+err.Error())
		return
	}

	log.Bot(phone).Info("Bot display name changed to: " + name)
	e.reply(ctx, phone, replyNameChanged(name))
}

func (e *Engine) handleGantiPP(ctx context.Context, phone string) {
	if !e.requireOwner(ctx, phone) {
		return
	}
	e.reply(ctx, phone, replyGantiPP)
}

func (e *Engine) handleBlock(ctx context.Context, phone string, cmd Command) {
	if !e.requireOwner(ctx, phone) {
		return
	}
	if len(cmd.Args) == 0 {
		e.reply(ctx, phone, replyBlockUsage)
		return
	}

	target := NormalizeTarget(cmd.Args[0])
	if target == "" {
		e.reply(ctx, phone, replyBlockUsage)
		return
	}

	if err := e.store.Block(target); err != nil {
		log.Bot(phone).WithError(err).Error("Failed to persist blocklist")
	}

	log.Bot(phone).Info("User blocked: " + target)
	e.reply(ctx, phone, replyUserBlocked(target))
}

func (e *Engine) handleUnblock(ctx context.Context, phone string, cmd Command) {
	if !e.requireOwner(ctx, phone) {
		return
	}
	if len(cmd.Args) == 0 {
		e.reply(ctx, phone, replyUnblockUsage)
		return
	}

	target := NormalizeTarget(cmd.Args[0])
	if err := e.store.Unblock(target); err != nil {
		if errors.Is(err, store.ErrNotBlocked) {
			e.reply(ctx, phone, replyNotBlocked)
			return
		}
		log.Bot(phone).WithError(err).Error("Failed to persist blocklist")
	}

	log.Bot(phone).Info("User unblocked: " + target)
	e.reply(ctx, phone, replyUserUnblocked(target))
}

func (e *Engine) handleListBlocked(ctx context.Context, phone string) {
	if !e.requireOwner(ctx, phone) {
		return
	}

	blocked := e.store.BlockedList()
	if len(blocked) == 0 {
		e.reply(ctx, phone, replyNoBlocked)
		return
	}
	e.reply(ctx, phone, replyBlockedList(blocked))
}

func (e *Engine) handleInfoBot(ctx context.Context, phone string) {
	if !e.requireOwner(ctx, phone) {
		return
	}

	ownerPhone, _ := e.store.Owner()
	e.reply(ctx, phone, replyInfoBot(e.channel.BotName(), ownerPhone, e.store.BlockedCount(), e.channel.IsConnected()))
}

func (e *Engine) handleLogin(ctx context.Context, phone string, cmd Command) {
	if len(cmd.Args) < 2 {
		e.reply(ctx, phone, replyLoginUsage)
		return
	}

	active, reused, err := e.sessions.Login(ctx, phone, cmd.Args[0], cmd.Args[1])
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		e.reply(ctx, phone, replyBadCredentials)
		return
	case errors.Is(err, session.ErrPhoneConflict), errors.Is(err, session.ErrBindRejected):
		e.reply(ctx, phone, replyPhoneConflict)
		return
	case err != nil:
		log.Bot(phone).WithError(err).Error("Login failed")
		e.reply(ctx, phone, replyBackendDown)
		return
	}

	if reused {
		e.reply(ctx, phone, replyAlreadyLoggedIn(active))
		return
	}

	log.Bot(phone).Info("Logged in as " + active.Username + " (" + string(active.Role) + ")")
	e.reply(ctx, phone, replyLoginSuccess(active))
}

func (e *Engine) handleLogout(ctx context.Context, phone string) {
	if _, err := e.sessions.Logout(ctx, phone); err != nil {
		e.reply(ctx, phone, replyLoginRequired)
		return
	}

	log.Bot(phone).Info("Logged out")
	e.reply(ctx, phone, replyLoggedOut)
}

func (e *Engine) handleProfile(ctx context.Context, phone string) {
	active, ok := e.requireSession(ctx, phone)
	if !ok {
		return
	}
	e.reply(ctx, phone, replyProfile(active))
}

func (e *Engine) handleCheckNIM(ctx context.Context, phone string, cmd Command) {
	if _, ok := e.requireSession(ctx, phone); !ok {
		return
	}
	if len(cmd.Args) == 0 {
		e.reply(ctx, phone, replyNIMUsage)
		return
	}

	nim := cmd.Args[0]
	e.reply(ctx, phone, replySearchingNIM(nim))

	record, err := e.directory.LookupNIM(ctx, nim)
	switch {
	case errors.Is(err, siakad.ErrNotFound):
		e.reply(ctx, phone, replyNIMNotFound(nim))
		return
	case err != nil:
		log.Bot(phone).WithError(err).Error("Mahasiswa lookup failed")
		e.reply(ctx, phone, replyBackendDown)
		return
	}

	e.reply(ctx, phone, replyMahasiswa(record))
}
