package application

import (
	"net/url"
	"strings"
)

// ContentTypeFor infere o tipo do áudio pela extensão da URL.
// .mp3/.mpeg viram audio/mpeg; todo o resto é tratado como audio/wav.
func ContentTypeFor(audioURL string) string {
	p := audioURL
	if u, err := url.Parse(audioURL); err == nil && u.Path != "" {
		// URLs pré-assinadas trazem query string depois da extensão
		p = u.Path
	}
	p = strings.ToLower(p)

	if strings.HasSuffix(p, ".mp3") || strings.HasSuffix(p, ".mpeg") {
		return "audio/mpeg"
	}
	return "audio/wav"
}
