package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the pipeline, retrieval, translation and AI providers.

Settings are stored in ~/.palimpsest/config.toml. Use "settings set" to change
one value, or the embedding and llm subcommands for guided setup.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting by key, e.g.

  palimpsest settings set retrieval.min_relevance 0.4
  palimpsest settings set pipeline.ocr_timeout 45s

Run "palimpsest settings keys" for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index and retrieve passages.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM used for translation and, optionally, for composing answers.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", displayKey(settings.Embedding.APIKey))
	}
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Server: %s\n", serverURL(settings.Embedding.BaseURL))
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	if settings.LLM.Provider == "" {
		cmd.Println("  Provider: (none)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		if settings.LLM.Provider.RequiresAPIKey() {
			cmd.Printf("  API Key: %s\n", displayKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  Server: %s\n", serverURL(settings.LLM.BaseURL))
		}
		if settings.LLM.RequestsPerMinute > 0 {
			cmd.Printf("  Requests/min: %d\n", settings.LLM.RequestsPerMinute)
		}
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Workers: %d\n", settings.Pipeline.Workers)
	cmd.Printf("  OCR timeout: %s\n", settings.Pipeline.OCRTimeout)
	cmd.Printf("  Detection threshold: %.2f (tie band %.2f)\n",
		settings.Pipeline.DetectionThreshold, settings.Pipeline.DetectionEpsilon)
	if settings.Pipeline.TessdataPrefix != "" {
		cmd.Printf("  Tessdata: %s\n", settings.Pipeline.TessdataPrefix)
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Chunk size: %d tokens, overlap %d\n", settings.Chunking.ChunkSize, settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Default k: %d\n", settings.Retrieval.DefaultK)
	cmd.Printf("  Min relevance: %.2f\n", settings.Retrieval.MinRelevance)
	cmd.Printf("  Answer mode: %s\n", settings.Retrieval.AnswerMode)
	cmd.Println()

	cmd.Println("[Translation]")
	cmd.Printf("  Timeout: %s\n", settings.Translation.Timeout)
	cmd.Printf("  Max segment: %d characters\n", settings.Translation.MaxSegmentRunes)
	classes := make([]string, len(settings.Translation.PreserveClasses))
	for i, c := range settings.Translation.PreserveClasses {
		classes[i] = string(c)
	}
	cmd.Printf("  Preserve: %s\n", strings.Join(classes, ", "))
	cmd.Printf("  Cache entries: %d\n", settings.Translation.CacheEntries)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'palimpsest settings set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	value := args[1]
	if strings.HasSuffix(args[0], "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", args[0], value)
	cmd.Println("Changes take effect the next time palimpsest starts.")
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureProvider(cmd, reader, providerSetup{
		kind:      "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		validate:  settingsService.ValidateEmbeddingConfig,
	})
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureProvider(cmd, reader, providerSetup{
		kind:      "llm",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		validate:  settingsService.ValidateLLMConfig,
	})
}

// providerSetup describes one guided provider configuration.
type providerSetup struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	validate  func(context.Context) error
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, setup providerSetup) error {
	cmd.Printf("Select %s provider\n", setup.kind)
	for i, p := range setup.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(setup.providers), 1)
	provider := setup.providers[idx-1]

	defaultModel := setup.models[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey, baseURL string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}
	if provider == domain.AIProviderOllama {
		cmd.Printf("Enter server URL [%s]: ", domain.DefaultOllamaURL)
		baseURL = readLine(reader)
	}

	if err := settingsService.Set(setup.kind+".provider", string(provider)); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", setup.kind, err)
	}
	if err := settingsService.Set(setup.kind+".model", model); err != nil {
		return fmt.Errorf("failed to configure %s model: %w", setup.kind, err)
	}
	if apiKey != "" {
		if err := settingsService.Set(setup.kind+".api_key", apiKey); err != nil {
			return fmt.Errorf("failed to configure %s API key: %w", setup.kind, err)
		}
	}
	if baseURL != "" {
		if err := settingsService.Set(setup.kind+".base_url", baseURL); err != nil {
			return fmt.Errorf("failed to configure %s server URL: %w", setup.kind, err)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := setup.validate(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", setup.kind, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", setup.kind, provider.Description(), model)
	return nil
}

// Helper functions.

func serverURL(u string) string {
	if u == "" {
		return domain.DefaultOllamaURL + " (default)"
	}
	return u
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// stdinIsTerminal is swapped out by tests.
var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func readPassword(reader *bufio.Reader) string {
	if stdinIsTerminal() {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func displayKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
