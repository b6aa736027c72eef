package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	_ "net/http/pprof" // profiling

	"nanopatterns/internal/nanopatterns/cmd"
	"nanopatterns/internal/nanopatterns/log"
)

const defaultProfileAddr = "localhost:6060"

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("Application terminated due to unhandled panic")
		os.Exit(2)
	})

	// NANOPATTERNS_PROFILE=1 serves pprof on the default address; a
	// host:port value picks the address.
	if profile := os.Getenv("NANOPATTERNS_PROFILE"); profile != "" {
		addr := defaultProfileAddr
		if strings.Contains(profile, ":") {
			addr = profile
		}
		go func() {
			slog.Info("Serving pprof", "addr", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				slog.Error("pprof listener stopped", "error", err)
			}
		}()
	}

	cmd.Execute()
}
