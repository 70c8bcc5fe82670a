package cli

import (
	"github.com/yildizm/docvec/internal/emoji"
)

// GetSymbol returns UI symbols with fallback support
func GetSymbol(symbolType string) string {
	return emoji.GetEmoji(symbolType)
}
