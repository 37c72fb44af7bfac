package chats

import (
	"strings"

	"github.com/pedeai/pedeai/internal/gateway"
)

// Placeholder labels shown when a message carries no extractable text.
// Portuguese to match the printed receipts and the dashboard locale.
const (
	placeholderMessage  = "[Mensagem]"
	placeholderImage    = "[Imagem]"
	placeholderVideo    = "[Vídeo]"
	placeholderAudio    = "[Áudio]"
	placeholderDocument = "[Arquivo]"
)

// ExtractContent normalizes a gateway payload field to display text.
// Plain strings pass through; structured payloads fall through
// text > body > caption > title, then a media placeholder derived from the
// MIME type, then a generic placeholder. Other scalars are stringified.
func ExtractContent(c gateway.Content) string {
	if c.IsEmpty() {
		return ""
	}
	if s, ok := c.AsString(); ok {
		return s
	}
	if obj, ok := c.AsObject(); ok {
		for _, s := range []string{obj.Text, obj.Body, obj.Caption, obj.Title} {
			if s != "" {
				return s
			}
		}
		if obj.Mimetype != "" {
			return mediaPlaceholder(obj.Mimetype)
		}
		return placeholderMessage
	}
	return c.Scalar()
}

func mediaPlaceholder(mimetype string) string {
	category, _, _ := strings.Cut(mimetype, "/")
	switch category {
	case "image":
		return placeholderImage
	case "video":
		return placeholderVideo
	case "audio":
		return placeholderAudio
	default:
		return placeholderDocument
	}
}

// contentTruthy mirrors the fallback-chain semantics of the upstream payload
// probing: absent, null, "", 0 and false do not count as content.
func contentTruthy(c gateway.Content) bool {
	if c.IsEmpty() {
		return false
	}
	if s, ok := c.AsString(); ok {
		return s != ""
	}
	if _, ok := c.AsObject(); ok {
		return true
	}
	switch c.Scalar() {
	case "0", "false":
		return false
	}
	return true
}

// firstContent returns the first truthy payload from the candidates.
func firstContent(candidates ...gateway.Content) gateway.Content {
	for _, c := range candidates {
		if contentTruthy(c) {
			return c
		}
	}
	return gateway.Content{}
}
