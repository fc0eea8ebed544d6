package serviceutil

import (
	"fmt"
	"log/slog"
	"os"
)

// Fatal logs `err` under `message` and exits with status 1.
func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// Exit prints `message` for the user and exits with status 1.
func Exit(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
