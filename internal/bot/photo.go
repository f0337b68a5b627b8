package bot

import (
	"bytes"
	"context"

	"github.com/sunshineplan/imgconv"

	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/log"
)

const profilePhotoSize = 640

// handleSetProfilePhoto downloads the image, squares it to the size
// WhatsApp accepts for avatars, and applies it as the bot's profile
// picture. Owner-only.
func (e *Engine) handleSetProfilePhoto(ctx context.Context, phone string, image *waE2E.ImageMessage) {
	if !e.requireOwner(ctx, phone) {
		return
	}

	e.reply(ctx, phone, replyProcessingImage)

	raw, err := e.channel.DownloadImage(ctx, image)
	if err != nil {
		log.Bot(phone).WithError(err).Error("Failed to download profile photo")
		e.reply(ctx, phone, "❌ Gagal set PP: "+err.Error())
		return
	}

	photo, err := squareJPEG(raw)
	if err != nil {
		log.Bot(phone).WithError(err).Error("Failed to process profile photo")
		e.reply(ctx, phone, "❌ Gagal set PP: "+err.Error())
		return
	}

	if err := e.channel.SetProfilePhoto(ctx, photo); err != nil {
		log.Bot(phone).WithError(err).Error("Failed to set profile photo")
		e.reply(ctx, phone, "❌ Gagal set PP: "+err.Error())
		return
	}

	log.Bot(phone).Info("Profile photo updated")
	e.reply(ctx, phone, replyPPUpdated)
}

// squareJPEG re-encodes arbitrary inbound image bytes to the square
// JPEG WhatsApp expects for profile pictures.
func squareJPEG(raw []byte) ([]byte, error) {
	decoded, err := imgconv.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	resized := imgconv.Resize(decoded, &imgconv.ResizeOption{
		Width:  profilePhotoSize,
		Height: profilePhotoSize,
	})

	out := new(bytes.Buffer)
	err = imgconv.Write(out, resized, &imgconv.FormatOption{
		Format:       imgconv.JPEG,
		EncodeOption: []imgconv.EncodeOption{imgconv.Quality(90)},
	})
	if err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
