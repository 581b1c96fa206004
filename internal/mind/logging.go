package mind

import (
	"github.com/charmbracelet/log"
)

const promptPreview = 500

// LogPrompt logs the size and a preview of a prompt right before inference.
// The full text is only visible at debug level.
func LogPrompt(logger *log.Logger, action, text string, kv ...any) {
	logger.Info("llm call", append([]any{"action", action, "prompt_len", len(text)}, kv...)...)
	if logger.GetLevel() > log.DebugLevel {
		return
	}
	preview := []rune(text)
	if len(preview) > promptPreview {
		preview = append(preview[len(preview)-promptPreview:], []rune(" (tail)")...)
	}
	logger.Debug("prompt", "action", action, "text", string(preview))
}

// cronLogger adapts a charmbracelet logger to cron.Logger.
type cronLogger struct{ l *log.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
