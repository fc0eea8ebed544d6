package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"marietje-uploads/cmd/marietje-uploads/commands"
	"marietje-uploads/internal/components/telemetry"
	"marietje-uploads/pkg/osutil"
)

func main() {
	ctx := osutil.SignalContext()

	otel, err := telemetry.SetupFromEnv(ctx, "marietje-uploads")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to setup telemetry", "err", err)
	}

	err = commands.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	otel.Shutdown(shutdownCtx)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
