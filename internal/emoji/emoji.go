package emoji

// emojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"error":     {"❌", "[ERR]"},
	"warning":   {"⚠️", "[WRN]"},
	"info":      {"ℹ️", "[INF]"},
	"success":   {"✅", "[OK]"},
	"document":  {"📄", "[DOC]"},
	"search":    {"🔍", "[Q]"},
	"category":  {"🏷️", "[CAT]"},
	"metadata":  {"🗂️", "[META]"},
	"score":     {"📊", "[SCORE]"},
	"created":   {"➕", "[NEW]"},
	"updated":   {"✏️", "[UPD]"},
	"deleted":   {"🗑️", "[DEL]"},
	"unchanged": {"➖", "[=]"},
	"watch":     {"👀", "[WATCH]"},
	"folder":    {"📁", "[DIR]"},
	"config":    {"⚙️", "[CFG]"},
	"help":      {"❓", "[?]"},
	"target":    {"🎯", "[>]"},
	"door":      {"🚪", "[EXIT]"},
	"number":    {"🔢", "[#]"},
}

var emojiDisabled bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled = disabled
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	return Symbol(key, !emojiDisabled)
}

// Symbol returns the emoji for key, or its text fallback when enabled is false
func Symbol(key string, enabled bool) string {
	mapping, exists := emojiMap[key]
	if !exists {
		return "[?]"
	}
	if enabled {
		return mapping[0]
	}
	return mapping[1]
}
