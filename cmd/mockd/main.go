package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chatctl/internal/httpapi"
	"chatctl/internal/responder"
	"chatctl/pkg/types"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("MOCKD_ADDR"); v != "" {
		defaultAddr = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	models := flag.String("models", "mock-7b-instruct", "Comma-separated model ids to advertise")
	defaultModel := flag.String("default-model", "", "Default model id when request omits model (defaults to the first of --models)")
	apiKey := flag.String("api-key", os.Getenv("MOCKD_API_KEY"), "If set, require this bearer token on /v1 endpoints")
	reply := flag.String("reply", "", "Fixed reply text; empty echoes the last user turn")
	chunkDelayMS := flag.Int("chunk-delay-ms", 10, "Delay between streamed chunks in milliseconds")
	corsEnabled := flag.Bool("cors-enabled", false, "Enable CORS middleware")
	corsOrigins := flag.String("cors-origins", "*", "Comma-separated allowed CORS origins")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	ids := splitCSV(*models)
	catalog := make([]types.Model, 0, len(ids))
	for _, id := range ids {
		catalog = append(catalog, types.Model{ID: id, Object: "model", Created: time.Now().Unix(), OwnedBy: "mockd"})
	}
	def := *defaultModel
	if def == "" && len(ids) > 0 {
		def = ids[0]
	}

	opts := []responder.Option{responder.WithChunkDelay(time.Duration(*chunkDelayMS) * time.Millisecond)}
	if *reply != "" {
		opts = append(opts, responder.WithCannedReply(*reply))
	}
	svc := responder.New(catalog, def, opts...)

	httpapi.SetLogger(logger)
	httpapi.SetAuthToken(*apiKey)
	httpapi.SetCORSOptions(*corsEnabled, splitCSV(*corsOrigins),
		[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
		[]string{"Accept", "Authorization", "Content-Type"})

	baseCtx, stopBase := context.WithCancel(context.Background())
	defer stopBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(svc)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", *addr).Strs("models", ids).Str("default_model", def).Msg("mockd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// splitCSV splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
