package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/connectors/filesystem"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text or a document",
	Long: `Translate between English, Hindi and Tamil.

Pass the text as an argument, or --doc to translate a document's extracted
text. --from accepts a language or "auto" to detect it from the text.
Dates, numerals and proper nouns are carried through unchanged.

Examples:
  palimpsest translate "Survey of 1892" --to ta
  palimpsest translate --doc DOC-1892-001 --to en`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

var translateBatchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Translate each line of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranslateBatch,
}

var (
	translateDoc  string
	translateFrom string
	translateTo   string
	translateJSON bool
)

func init() {
	translateCmd.PersistentFlags().StringVar(&translateFrom, "from", "auto", "Source language, or auto")
	translateCmd.PersistentFlags().StringVar(&translateTo, "to", "", "Target language (required)")
	translateCmd.PersistentFlags().BoolVar(&translateJSON, "json", false, "Output as JSON")
	translateCmd.Flags().StringVar(&translateDoc, "doc", "", "Translate the extracted text of this document")
	translateCmd.AddCommand(translateBatchCmd)
	rootCmd.AddCommand(translateCmd)
}

// parseLanguages resolves the --from and --to flags.
func parseLanguages() (source, target domain.Language, err error) {
	if translateTo == "" {
		return "", "", errors.New("--to is required")
	}
	target, ok := domain.ParseLanguage(translateTo)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown language %q", domain.ErrUnsupportedLanguagePair, translateTo)
	}
	if translateFrom == "" || strings.EqualFold(translateFrom, "auto") {
		return domain.LanguageUndetermined, target, nil
	}
	source, ok = domain.ParseLanguage(translateFrom)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown language %q", domain.ErrUnsupportedLanguagePair, translateFrom)
	}
	return source, target, nil
}

func runTranslate(cmd *cobra.Command, args []string) error {
	if translationService == nil {
		return errors.New("translation service not configured")
	}
	if (len(args) == 0) == (translateDoc == "") {
		return errors.New("give either text or --doc")
	}

	source, target, err := parseLanguages()
	if err != nil {
		return err
	}

	var result *domain.TranslationResult
	if translateDoc != "" {
		result, err = translationService.TranslateDocument(cmd.Context(), translateDoc, source, target)
	} else {
		result, err = translationService.Translate(cmd.Context(), args[0], source, target)
	}
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if translateJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Text)
	if len(result.Path) > 2 {
		cmd.Printf("\n(via %s)\n", joinLanguages(result.Path))
	}
	if len(result.EntitiesPreserved) > 0 {
		cmd.Printf("Preserved: %s\n", strings.Join(result.EntitiesPreserved, ", "))
	}
	return nil
}

// batchLine is one line of batch output.
type batchLine struct {
	Line   int                       `json:"line"`
	Result *domain.TranslationResult `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

func runTranslateBatch(cmd *cobra.Command, args []string) error {
	if translationService == nil {
		return errors.New("translation service not configured")
	}

	source, target, err := parseLanguages()
	if err != nil {
		return err
	}

	texts, err := readLines(filesystem.ResolvePath(args[0]))
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		cmd.Println("Nothing to translate.")
		return nil
	}

	items := translationService.TranslateBatch(cmd.Context(), texts, source, target)

	var failed int
	lines := make([]batchLine, len(items))
	for i, item := range items {
		lines[i] = batchLine{Line: item.Index + 1, Result: item.Result}
		if item.Err != nil {
			lines[i].Error = item.Err.Error()
			failed++
		}
	}

	if translateJSON {
		data, err := json.MarshalIndent(lines, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
	} else {
		for _, l := range lines {
			if l.Error != "" {
				cmd.Printf("%d: error: %s\n", l.Line, l.Error)
				continue
			}
			cmd.Printf("%d: %s\n", l.Line, l.Result.Text)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed", failed, len(items))
	}
	return nil
}

// readLines returns the non-blank lines of a file.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), domain.MaxUploadBytes)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

func joinLanguages(path []domain.Language) string {
	names := make([]string, len(path))
	for i, l := range path {
		names[i] = l.Name()
	}
	return strings.Join(names, " → ")
}
