package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"easymo/internal/logger"
	"easymo/pkg/models"
)

// Normalizer flattens a provider payload into an ordered sequence of
// NormalizedMessage, one per provider message unit. Malformed nesting
// levels are skipped so a bad sub-entry never aborts its siblings.
type Normalizer struct {
	logger logger.Logger
}

func NewNormalizer(log logger.Logger) *Normalizer {
	return &Normalizer{logger: log}
}

func (n *Normalizer) NormalizeRaw(ctx context.Context, body []byte) ([]models.NormalizedMessage, error) {
	var payload models.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return n.Normalize(ctx, payload), nil
}

func (n *Normalizer) Normalize(ctx context.Context, payload models.Payload) []models.NormalizedMessage {
	var out []models.NormalizedMessage

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Value == nil {
				n.logger.DebugwCtx(ctx, "Skipping change without value",
					"entry_id", entry.ID,
					"field", change.Field,
				)
				continue
			}
			if len(change.Value.Messages) == 0 {
				continue
			}
			for _, msg := range change.Value.Messages {
				normalized, ok := n.normalizeMessage(msg)
				if !ok {
					n.logger.WarnwCtx(ctx, "Skipping malformed message unit",
						"entry_id", entry.ID,
						"message_id", msg.ID,
						"from", msg.From,
					)
					continue
				}
				out = append(out, normalized)
			}
		}
	}

	return out
}

func (n *Normalizer) normalizeMessage(msg models.Message) (models.NormalizedMessage, bool) {
	// A message unit without sender or provider id cannot be routed or
	// acknowledged downstream.
	if msg.From == "" || msg.ID == "" {
		return models.NormalizedMessage{}, false
	}

	normalized := models.NormalizedMessage{
		From:      msg.From,
		MessageID: msg.ID,
		Type:      msg.Type,
	}

	switch msg.Type {
	case "text":
		if msg.Text != nil {
			normalized.Text = msg.Text.Body
		}
	case "interactive":
		if msg.Interactive != nil {
			if reply := msg.Interactive.ButtonReply; reply != nil {
				normalized.Interactive = &models.InteractiveContent{
					Kind:  "button_reply",
					ID:    reply.ID,
					Title: reply.Title,
				}
			} else if reply := msg.Interactive.ListReply; reply != nil {
				normalized.Interactive = &models.InteractiveContent{
					Kind:  "list_reply",
					ID:    reply.ID,
					Title: reply.Title,
				}
			}
		}
	case "image":
		normalized.Media = mediaContent("image", msg.Image)
	case "video":
		normalized.Media = mediaContent("video", msg.Video)
	case "audio":
		normalized.Media = mediaContent("audio", msg.Audio)
	case "document":
		normalized.Media = mediaContent("document", msg.Document)
	case "sticker":
		normalized.Media = mediaContent("sticker", msg.Sticker)
	default:
		// Unknown types pass through with type set; the router decides.
	}

	return normalized, true
}

func mediaContent(kind string, media *models.Media) *models.MediaContent {
	if media == nil {
		return nil
	}
	return &models.MediaContent{
		Kind:    kind,
		ID:      media.ID,
		Caption: media.Caption,
	}
}
