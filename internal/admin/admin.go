// Package admin is the operator-facing HTTP surface: connection status,
// pairing QR, and outbound messaging on behalf of the bot account.
package admin

import (
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/RasyaGtps/siaku-whatsapp-service/internal/store"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/types"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/verify"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/env"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/log"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/router"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/whatsapp"
)

var (
	identityStore *store.Store
	codeFlow      *verify.Flow
)

// Init wires the controllers to the shared state. Called once from the
// route setup before the server starts.
func Init(st *store.Store, flow *verify.Flow) {
	identityStore = st
	codeFlow = flow
}

func GetStatus(c *fiber.Ctx) error {
	owner, _ := identityStore.Owner()

	return router.ResponseSuccessWithData(c, "WhatsApp status", types.StatusResponse{
		Connected:            whatsapp.IsConnected(),
		BotName:              whatsapp.BotName(),
		BotPhone:             whatsapp.BotPhone(),
		Owner:                owner,
		BlockedUsers:         identityStore.BlockedCount(),
		ActiveSessions:       identityStore.SessionCount(),
		PendingVerifications: codeFlow.PendingCount(),
	})
}

func GetQR(c *fiber.Ctx) error {
	qr := whatsapp.QRCode()
	if qr == "" {
		return router.ResponseNotFound(c, "No pairing QR available, device is already paired or not connecting")
	}

	return router.ResponseSuccessWithData(c, "Scan this QR with WhatsApp", fiber.Map{
		"qr_code": "data:image/png;base64," + qr,
	})
}

func SendMessage(c *fiber.Ctx) error {
	var request types.SendMessageRequest
	if err := c.BodyParser(&request); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}

	request.Phone = strings.TrimSpace(request.Phone)
	if request.Phone == "" || strings.TrimSpace(request.Message) == "" {
		return router.ResponseBadRequest(c, "Both phone and message are required")
	}

	if err := whatsapp.SendText(c.UserContext(), request.Phone, request.Message); err != nil {
		log.Handler(c, "SendMessage").WithError(err).Error("Outbound send failed")
		return router.ResponseBadGateway(c, "Failed to send message: "+err.Error())
	}

	return router.ResponseSuccess(c, "Message sent")
}

func Broadcast(c *fiber.Ctx) error {
	var request types.BroadcastRequest
	if err := c.BodyParser(&request); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}

	if len(request.Phones) == 0 || strings.TrimSpace(request.Message) == "" {
		return router.ResponseBadRequest(c, "Both phones and message are required")
	}

	ctx := c.UserContext()
	results := make([]types.BroadcastResult, len(request.Phones))

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(env.GetEnvIntOrDefault("BROADCAST_CONCURRENCY", 5))

	for i, phone := range request.Phones {
		i, phone := i, strings.TrimSpace(phone)
		group.Go(func() error {
			result := types.BroadcastResult{Phone: phone}
			if err := whatsapp.SendText(groupCtx, phone, request.Message); err != nil {
				result.Error = err.Error()
			} else {
				result.Sent = true
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()

	sent := 0
	for _, result := range results {
		if result.Sent {
			sent++
		}
	}

	return router.ResponseSuccessWithData(c, "Broadcast finished", fiber.Map{
		"sent":    sent,
		"failed":  len(results) - sent,
		"results": results,
	})
}
