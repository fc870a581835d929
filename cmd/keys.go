package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reviewero/internal/apperr"
	"reviewero/internal/credentials"
	"reviewero/internal/ui"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys for TMDB, OMDb and Gemini",
}

var keysSetCmd = &cobra.Command{
	Use:       "set <tmdb|omdb|gemini> [value]",
	Short:     "Store a key (prompts when no value is given, empty clears it)",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: credentials.Services,
	RunE:      keysSetRun,
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which keys are configured",
	Args:  cobra.NoArgs,
	RunE:  keysShowRun,
}

var keysExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write stored keys as JSON (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  keysExportRun,
}

var keysImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace stored keys from a JSON file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  keysImportRun,
}

var keysValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every configured key with a live request",
	Args:  cobra.NoArgs,
	RunE:  keysValidateRun,
}

func init() {
	keysCmd.AddCommand(keysSetCmd, keysShowCmd, keysExportCmd, keysImportCmd, keysValidateCmd)
}

func keysSetRun(cmd *cobra.Command, args []string) error {
	service := strings.ToLower(args[0])
	if !credentials.Known(service) {
		return fmt.Errorf("unknown service %q (valid: %s)", service, strings.Join(credentials.Services, ", "))
	}

	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		var err error
		value, err = ui.Secret(service + " key")
		if err != nil {
			return err
		}
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if err := svc.store.Set(service, strings.TrimSpace(value)); err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		fmt.Printf("Cleared %s key\n", service)
	} else {
		fmt.Printf("Saved %s key\n", service)
	}
	return nil
}

func keysShowRun(cmd *cobra.Command, args []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.close()

	for _, service := range credentials.Services {
		key := svc.store.Key(service)
		if key == "" {
			fmt.Printf("%-7s (not set)\n", service)
			continue
		}
		fmt.Printf("%-7s %s  [%s]\n", service, credentials.Mask(key), svc.store.Source(service))
	}
	fmt.Printf("\nstore: %s\n", svc.store.Path())
	return nil
}

func keysExportRun(cmd *cobra.Command, args []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if len(args) == 0 || args[0] == "-" {
		return svc.store.Export(os.Stdout)
	}
	f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := svc.store.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	fmt.Printf("Exported keys to %s\n", args[0])
	return nil
}

func keysImportRun(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if err := svc.store.Import(r); err != nil {
		return err
	}
	fmt.Println("Imported keys")
	return nil
}

func keysValidateRun(cmd *cobra.Command, args []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.close()

	validators := map[string]credentials.Validator{}
	if svc.store.Key(apperr.ServiceTMDB) != "" {
		validators[apperr.ServiceTMDB] = svc.tmdb
	}
	if svc.store.Key(apperr.ServiceOMDb) != "" {
		validators[apperr.ServiceOMDb] = svc.omdb
	}
	if svc.store.Key(apperr.ServiceGemini) != "" {
		validators[apperr.ServiceGemini] = svc.synth
	}
	if len(validators) == 0 {
		return fmt.Errorf("no keys configured; run \"reviewero keys set\"")
	}

	results := ui.Wait("Validating keys", func() []credentials.Result {
		return credentials.ValidateAll(cmd.Context(), validators)
	})

	failed := 0
	for _, r := range results {
		if r.OK() {
			fmt.Printf("%-7s ok\n", r.Service)
			continue
		}
		failed++
		fmt.Printf("%-7s %s\n", r.Service, ui.RenderError(r.Err.Error()))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d keys failed validation", failed, len(results))
	}
	return nil
}
