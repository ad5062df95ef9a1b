package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/olasis/olasis-service/internal/config"
	"github.com/olasis/olasis-service/internal/sources"
)

// checkResult is the outcome of one diagnostic.
type checkResult struct {
	Name    string
	OK      bool
	Message string
}

func (r checkResult) line() string {
	status := "OK"
	if !r.OK {
		status = "FAIL"
	}
	return fmt.Sprintf("[%s] %s: %s", status, r.Name, r.Message)
}

// placeholderKeys are template values that were never replaced.
var placeholderKeys = map[string]bool{
	"":                             true,
	"sua_chave_api_aqui":           true,
	"sua_chave_google_gemini_aqui": true,
	"coloque_sua_chave":            true,
	"your_api_key":                 true,
	"your_api_key_here":            true,
	"your-api-key":                 true,
	"changeme":                     true,
}

var googleKeyPattern = regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`)

var envExampleKeyLine = regexp.MustCompile(`(?m)^GOOGLE_API_KEY=(.+)$`)

func isPlaceholder(value string) bool {
	return placeholderKeys[strings.ToLower(strings.TrimSpace(value))]
}

// checkAPIKey inspects GOOGLE_API_KEY then GEMINI_API_KEY without revealing
// them. A variable that is set but empty counts as a placeholder.
func checkAPIKey(lookupEnv func(string) (string, bool)) checkResult {
	const name = "GOOGLE_API_KEY"
	var placeholders []string

	for _, envName := range []string{config.EnvGoogleAPIKey, config.EnvGeminiAPIKey} {
		raw, set := lookupEnv(envName)
		if !set {
			continue
		}
		if isPlaceholder(raw) {
			placeholders = append(placeholders, envName)
			continue
		}
		msg := "key configured (value hidden)"
		if envName == config.EnvGeminiAPIKey {
			msg = "key configured via GEMINI_API_KEY (value hidden)"
		}
		if !googleKeyPattern.MatchString(strings.TrimSpace(raw)) {
			return checkResult{Name: name, OK: false, Message: "value in " + envName + " does not look like a Gemini key (expected AIza followed by 35 characters)"}
		}
		return checkResult{Name: name, OK: true, Message: msg}
	}

	if len(placeholders) > 0 {
		return checkResult{Name: name, OK: false, Message: "value in " + strings.Join(placeholders, ", ") + " is still a placeholder; replace it with a real Gemini key"}
	}
	return checkResult{Name: name, OK: false, Message: `no key configured; export GOOGLE_API_KEY="..." (or GEMINI_API_KEY)`}
}

// checkEnvExample flags a real-looking key committed to the example env file.
func checkEnvExample(path string) checkResult {
	const name = ".env.example"
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return checkResult{Name: name, OK: true, Message: "file not found; nothing to check"}
	}
	if err != nil {
		return checkResult{Name: name, OK: false, Message: fmt.Sprintf("cannot read file: %v", err)}
	}

	m := envExampleKeyLine.FindSubmatch(content)
	if m == nil {
		return checkResult{Name: name, OK: true, Message: "no GOOGLE_API_KEY= line"}
	}
	value := strings.Trim(strings.TrimSpace(string(m[1])), `"`)
	switch {
	case isPlaceholder(value):
		return checkResult{Name: name, OK: true, Message: "placeholder preserved"}
	case googleKeyPattern.MatchString(value):
		return checkResult{Name: name, OK: false, Message: "possible real key found; move it to .env and restore the placeholder"}
	default:
		return checkResult{Name: name, OK: true, Message: "custom value found; confirm it is not a real key"}
	}
}

// checkSecretKey reports whether session cookies will survive a restart.
func checkSecretKey(c *config.Config) checkResult {
	const name = config.EnvSecretKey
	switch {
	case c.Server.SecretKey != "":
		return checkResult{Name: name, OK: true, Message: "configured"}
	case c.Server.IsProduction():
		return checkResult{Name: name, OK: false, Message: "required in " + c.Server.Environment}
	default:
		return checkResult{Name: name, OK: true, Message: "not set; an ephemeral key will be generated"}
	}
}

// checkCounter probes an upstream by asking for its total count.
func checkCounter(ctx context.Context, name string, count func(context.Context) (int64, error)) checkResult {
	n, err := count(ctx)
	switch {
	case err != nil:
		return checkResult{Name: name, OK: false, Message: fmt.Sprintf("unreachable: %v", err)}
	case n <= 0:
		return checkResult{Name: name, OK: false, Message: "reachable but reported no records"}
	default:
		return checkResult{Name: name, OK: true, Message: fmt.Sprintf("reachable (%d records)", n)}
	}
}

// printReport writes every result and reports whether all passed.
func printReport(w io.Writer, results []checkResult) bool {
	ok := true
	for _, r := range results {
		fmt.Fprintln(w, r.line())
		ok = ok && r.OK
	}
	return ok
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration, API keys and upstream reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		results := []checkResult{
			checkAPIKey(os.LookupEnv),
			checkEnvExample(".env.example"),
			checkSecretKey(cfg),
		}

		if offline, _ := cmd.Flags().GetBool("offline"); !offline {
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()
			results = append(results,
				checkCounter(ctx, sources.SourceOpenAlex, newOpenAlex().CountArticles),
				checkCounter(ctx, sources.SourceORCID, newORCID().CountResearchers),
			)
		}

		out := cmd.OutOrStdout()
		if !printReport(out, results) {
			fmt.Fprintln(out, "\nAt least one check failed. Fix the items above and run again.")
			return fmt.Errorf("diagnostics failed")
		}
		fmt.Fprintln(out, "\nEnvironment ready for OLABOT.")
		return nil
	},
}

func init() {
	doctorCmd.Flags().Bool("offline", false, "skip upstream probes")
	rootCmd.AddCommand(doctorCmd)
}
