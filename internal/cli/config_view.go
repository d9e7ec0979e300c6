package cli

import (
	"fmt"
	"io"

	"github.com/dyike/CortexReview/config"
)

func showConfig(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, "📋 Current CortexReview Configuration:")
	fmt.Fprintln(w, "═══════════════════════════════════════")
	fmt.Fprintf(w, "Config File:          %s\n", path)
	fmt.Fprintf(w, "Data Directory:       %s\n", cfg.DataDir)
	fmt.Fprintf(w, "Results Directory:    %s\n", cfg.ResultsDir)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Provider:             %s\n", cfg.Provider)
	fmt.Fprintf(w, "Model:                %s\n", cfg.ModelName())
	if cfg.BackendURL != "" {
		fmt.Fprintf(w, "Backend URL:          %s\n", cfg.BackendURL)
	}
	fmt.Fprintf(w, "Temperature:          %.2f\n", cfg.Temperature)
	fmt.Fprintf(w, "Request Timeout:      %s\n", cfg.Timeout())
	fmt.Fprintln(w)
	playbook := cfg.PlaybookPath
	if playbook == "" {
		playbook = "(built-in MarScalper)"
	}
	fmt.Fprintf(w, "Playbook:             %s\n", playbook)
	fmt.Fprintf(w, "Max Image Size:       %d MB\n", cfg.MaxImageMB)
	fmt.Fprintf(w, "Journal:              %t\n", cfg.JournalEnabled)
	fmt.Fprintf(w, "Web Desk Address:     %s\n", cfg.ServeAddr)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Log Level:            %s\n", cfg.LogLevel)
	fmt.Fprintf(w, "Debug Mode:           %t\n", cfg.Debug)
	fmt.Fprintf(w, "Eino Debug:           %t\n", cfg.EinoDebugEnabled)
	if cfg.EinoDebugEnabled {
		fmt.Fprintf(w, "Eino Debug Port:      %d\n", cfg.EinoDebugPort)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔌 API Configuration:")
	fmt.Fprintln(w, "─────────────────────")
	fmt.Fprintf(w, "Gemini API:           %s\n", configured(cfg.GeminiAPIKey))
	fmt.Fprintf(w, "OpenAI API:           %s\n", configured(cfg.OpenAIAPIKey))
}

func configured(key string) string {
	if key != "" {
		return "✅ Configured"
	}
	return "❌ Not configured"
}

func validateConfig(w io.Writer, cfg *config.Config, playbookName string) error {
	fmt.Fprintln(w, "🔍 Validating CortexReview Configuration...")
	fmt.Fprintln(w, "═══════════════════════════════════════")

	fmt.Fprint(w, "📁 Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintln(w, "❌")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Fprintln(w, "✅")

	fmt.Fprint(w, "⚙️  Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(w, "❌")
		return err
	}
	fmt.Fprintln(w, "✅")

	fmt.Fprintf(w, "📖 Playbook: %s ✅\n", playbookName)

	fmt.Fprint(w, "🔑 Checking API key... ")
	if err := cfg.CheckCredentials(); err != nil {
		fmt.Fprintln(w, "❌")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "💡 Tips:")
		fmt.Fprintln(w, "  • Set GEMINI_API_KEY (or GOOGLE_API_KEY) for the gemini provider")
		fmt.Fprintln(w, "  • Set OPENAI_API_KEY and CORTEXREVIEW_PROVIDER=openai for an OpenAI-compatible endpoint")
		return err
	}
	fmt.Fprintln(w, "✅")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "✅ Configuration validation completed successfully!")
	fmt.Fprintln(w, "  • Use 'cortexreview evaluate <image>' to grade your first execution")
	return nil
}
