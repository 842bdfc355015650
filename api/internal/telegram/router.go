package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recipe-lens/api/internal/analyze"
)

// Analyzer runs the ingredient/recipe pipeline on one photo.
type Analyzer interface {
	Analyze(ctx context.Context, req analyze.Request) (analyze.Result, error)
	Available() map[string]bool
}

type Router struct {
	Bot      *tgbotapi.BotAPI
	Analyzer Analyzer

	// MaxPhotoBytes caps downloads; 20 MB when zero.
	MaxPhotoBytes int64
	// AnalyzeTimeout bounds one photo; 3 minutes when zero.
	AnalyzeTimeout time.Duration
	// MaxConcurrent caps updates handled at once by Run; 8 when zero.
	MaxConcurrent int
	// FileEndpoint is the file download URL format (token, path); tgbotapi.FileEndpoint when empty.
	FileEndpoint string
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.send(cid, r.commandReply(msg.Command()))
		return
	}

	fileID := photoFileID(msg)
	if fileID == "" {
		if msg.Text != "" {
			r.send(cid, "Send me a photo of your fridge or pantry and I'll suggest a recipe.")
		}
		return
	}
	r.acceptPhoto(ctx, cid, fileID)
}

func (r *Router) commandReply(cmd string) string {
	switch cmd {
	case "start", "help":
		return "📸 Send a photo of your ingredients and I'll find the food and suggest a recipe.\nCommands: /health"
	case "health":
		var b strings.Builder
		b.WriteString("✅ OK")
		if r.Analyzer != nil {
			for _, name := range []string{"custom", "standard"} {
				status := "off"
				if r.Analyzer.Available()[name] {
					status = "on"
				}
				fmt.Fprintf(&b, "\n%s detector: %s", name, status)
			}
		}
		return b.String()
	default:
		return "Unknown command"
	}
}

// photoFileID picks the largest photo size, or an image sent as a document.
func photoFileID(msg *tgbotapi.Message) string {
	if n := len(msg.Photo); n > 0 {
		return msg.Photo[n-1].FileID
	}
	if d := msg.Document; d != nil && strings.HasPrefix(d.MimeType, "image/") {
		return d.FileID
	}
	return ""
}

func (r *Router) acceptPhoto(ctx context.Context, cid int64, fileID string) {
	r.send(cid, "🔍 Photo received, looking for ingredients…")

	timeout := r.AnalyzeTimeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		r.sendError(cid, err)
		return
	}
	endpoint := r.FileEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.FileEndpoint
	}
	img, err := r.download(ctx, fmt.Sprintf(endpoint, r.Bot.Token, file.FilePath))
	if err != nil {
		r.sendError(cid, err)
		return
	}

	res, err := r.Analyzer.Analyze(ctx, analyze.Request{Image: img, Source: "telegram"})
	if err != nil {
		var de *analyze.DecodeError
		if errors.As(err, &de) {
			r.send(cid, "❌ I couldn't read that image. Try a JPEG or PNG photo.")
			return
		}
		r.sendError(cid, err)
		return
	}
	r.send(cid, FormatReply(res))
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	limit := r.MaxPhotoBytes
	if limit <= 0 {
		limit = 20 << 20
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: status %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("photo larger than %d bytes", limit)
	}
	return b, nil
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram send to %d: %v", chatID, err)
	}
}

func (r *Router) sendError(chatID int64, err error) {
	log.Printf("telegram chat %d: %v", chatID, err)
	r.send(chatID, fmt.Sprintf("❌ Analysis failed: %v", err))
}
