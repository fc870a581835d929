package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reviewero/internal/apperr"
	"reviewero/internal/stremio"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Stremio addon server",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "Listen address (default from config)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	listen := cfg.Listen
	if flagListen != "" {
		listen = flagListen
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, service := range missingKeys(svc, apperr.ServiceTMDB, apperr.ServiceGemini) {
		obs.Warnf(serviceCLI, "no %s key configured; requests will fail until one is set", service)
	}

	srv := stremio.NewServer(stremio.Options{
		Listen:    listen,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Version:   Version,
	}, svc.orch, obs)
	return srv.ListenAndServe(ctx)
}

func missingKeys(svc *services, services ...string) []string {
	var missing []string
	for _, s := range services {
		if svc.store.Key(s) == "" {
			missing = append(missing, s)
		}
	}
	return missing
}
