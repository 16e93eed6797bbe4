package sl

import (
	"fmt"
	"log/slog"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Secret returns the first 5 characters of a credential under the given key,
// used to hide sensitive information in logs
func Secret(key, some string) slog.Attr {
	r := "***"
	if len(some) > 5 {
		r = fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		r = "?"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(r),
	}
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "mod",
		Value: slog.StringValue(mod),
	}
}

// Excerpt logs at most 50 runes of a long text such as a prompt
func Excerpt(key, text string) slog.Attr {
	r := []rune(text)
	if len(r) > 50 {
		text = string(r[:50]) + "..."
	}
	return slog.String(key, text)
}
