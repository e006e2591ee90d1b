package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

// SubmitInput is the input schema for the submit_document tool.
type SubmitInput struct {
	Content  string `json:"content" jsonschema:"the file bytes, base64 encoded"`
	MIMEType string `json:"mime_type" jsonschema:"image/png, image/jpeg, image/tiff or application/pdf"`
	Filename string `json:"filename,omitempty" jsonschema:"original file name, for display only"`
}

// SubmitOutput is the output schema for the submit_document tool.
type SubmitOutput struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// StatusInput is the input schema for the document_status tool.
type StatusInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier returned by submit_document, e.g. DOC-1892-001"`
}

// RegionOutput is one extracted text region.
type RegionOutput struct {
	Index      int     `json:"index"`
	Page       int     `json:"page"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// StatusOutput is the output schema for the document_status tool.
type StatusOutput struct {
	DocumentID         string         `json:"document_id"`
	Status             string         `json:"status"`
	FailedStage        string         `json:"failed_stage,omitempty"`
	Failure            string         `json:"failure,omitempty"`
	ExtractedText      string         `json:"extracted_text,omitempty"`
	Language           string         `json:"language,omitempty"`
	LanguageConfidence float64        `json:"language_confidence,omitempty"`
	LowConfidence      bool           `json:"low_confidence,omitempty"`
	Confidence         float64        `json:"confidence,omitempty"`
	Regions            []RegionOutput `json:"regions,omitempty"`
	ProcessingMs       int64          `json:"processing_duration_ms,omitempty"`
	UpdatedAt          string         `json:"updated_at"`
}

// TranslateInput is the input schema for the translate tool.
type TranslateInput struct {
	Text       string `json:"text,omitempty" jsonschema:"text to translate; omit when document_id is set"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"translate this document's extracted text instead of text"`
	Source     string `json:"source_language,omitempty" jsonschema:"source language code, or auto (default)"`
	Target     string `json:"target_language" jsonschema:"target language code: en, hi or ta"`
}

// TranslateOutput is the output schema for the translate tool.
type TranslateOutput struct {
	TranslatedText    string   `json:"translated_text"`
	Source            string   `json:"source_language"`
	Target            string   `json:"target_language"`
	EntitiesPreserved []string `json:"entities_preserved"`
	Segments          int      `json:"segments"`
	LocalContext      bool     `json:"local_context"`
	Path              []string `json:"path"`
}

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string `json:"question" jsonschema:"free-text question about the archive"`
	K        int    `json:"k,omitempty" jsonschema:"number of passages to retrieve (default 5)"`
}

// PassageOutput is one retrieved chunk.
type PassageOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// CitationOutput names a document that grounded the answer.
type CitationOutput struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"relevance_score"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Answer    string           `json:"answer"`
	Citations []CitationOutput `json:"citations"`
	Passages  []PassageOutput  `json:"passages"`
	Uncertain bool             `json:"uncertain"`
	K         int              `json:"k"`
}

// LanguagesInput is the (empty) input schema for the list_languages tool.
type LanguagesInput struct{}

// LanguageOutput describes one supported language.
type LanguageOutput struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	Script     string `json:"script"`
	Documents  int    `json:"documents"`
}

// LanguagesOutput is the output schema for the list_languages tool.
type LanguagesOutput struct {
	Languages    []LanguageOutput `json:"languages"`
	Undetermined int              `json:"undetermined_documents"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "submit_document",
		Description: "Submit a scanned page or PDF for OCR, language detection and indexing. Returns at once with a document ID.",
	}, s.handleSubmit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_status",
		Description: "Report a document's processing state, and its extracted text once available",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "translate",
		Description: "Translate text or a document between English, Hindi and Tamil, keeping dates, numerals and names intact",
	}, s.handleTranslate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Ask a question over all indexed documents; the answer cites the documents it used",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_languages",
		Description: "List the supported languages and how many documents were detected in each",
	}, s.handleLanguages)
}

// handleSubmit handles the submit_document tool invocation.
func (s *Server) handleSubmit(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubmitInput,
) (*mcp.CallToolResult, SubmitOutput, error) {
	content, err := base64.StdEncoding.DecodeString(input.Content)
	if err != nil {
		return nil, SubmitOutput{}, toolError(fmt.Errorf("%w: content is not valid base64", domain.ErrInvalidInput))
	}

	id, err := s.ports.Ingestion.Submit(ctx, driving.Upload{
		Filename: input.Filename,
		MIMEType: input.MIMEType,
		Content:  content,
	})
	if err != nil {
		return nil, SubmitOutput{}, toolError(err)
	}

	return nil, SubmitOutput{DocumentID: id, Status: string(domain.StatusUploaded)}, nil
}

// handleStatus handles the document_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	report, err := s.ports.Ingestion.Status(ctx, strings.TrimSpace(input.DocumentID))
	if err != nil {
		return nil, StatusOutput{}, toolError(err)
	}
	return nil, statusOutput(report), nil
}

func statusOutput(r *driving.StatusReport) StatusOutput {
	out := StatusOutput{
		DocumentID:         r.DocumentID,
		Status:             string(r.Status),
		ExtractedText:      r.Text,
		LanguageConfidence: r.LanguageConfidence,
		LowConfidence:      r.LowConfidence,
		Confidence:         r.Confidence,
		ProcessingMs:       r.ProcessingMs,
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Language != domain.LanguageUndetermined {
		out.Language = string(r.Language)
	}
	if r.Failure != nil {
		out.FailedStage = string(r.Failure.Stage)
		out.Failure = r.Failure.Message
	}
	for _, reg := range r.Regions {
		out.Regions = append(out.Regions, RegionOutput{
			Index:      reg.Index,
			Page:       reg.Page,
			Text:       reg.Text,
			Confidence: reg.Confidence,
		})
	}
	return out
}

// handleTranslate handles the translate tool invocation.
func (s *Server) handleTranslate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TranslateInput,
) (*mcp.CallToolResult, TranslateOutput, error) {
	if s.ports.Translation == nil {
		return nil, TranslateOutput{}, fmt.Errorf("translate: %w", ErrToolUnavailable)
	}

	source, err := parseSource(input.Source)
	if err != nil {
		return nil, TranslateOutput{}, toolError(err)
	}
	target, ok := domain.ParseLanguage(input.Target)
	if !ok {
		return nil, TranslateOutput{}, toolError(fmt.Errorf("%w: unknown target language %q", domain.ErrUnsupportedLanguagePair, input.Target))
	}

	var result *domain.TranslationResult
	switch {
	case input.DocumentID != "":
		result, err = s.ports.Translation.TranslateDocument(ctx, input.DocumentID, source, target)
	case strings.TrimSpace(input.Text) != "":
		result, err = s.ports.Translation.Translate(ctx, input.Text, source, target)
	default:
		err = fmt.Errorf("%w: text or document_id is required", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, TranslateOutput{}, toolError(err)
	}

	out := TranslateOutput{
		TranslatedText:    result.Text,
		Source:            string(result.Source),
		Target:            string(result.Target),
		EntitiesPreserved: result.EntitiesPreserved,
		Segments:          result.Segments,
		LocalContext:      result.LocalContext,
		Path:              make([]string, len(result.Path)),
	}
	if out.EntitiesPreserved == nil {
		out.EntitiesPreserved = []string{}
	}
	for i, l := range result.Path {
		out.Path[i] = string(l)
	}
	return nil, out, nil
}

// parseSource accepts a language or "auto".
func parseSource(s string) (domain.Language, error) {
	if s == "" || strings.EqualFold(s, "auto") {
		return domain.LanguageUndetermined, nil
	}
	lang, ok := domain.ParseLanguage(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown source language %q", domain.ErrUnsupportedLanguagePair, s)
	}
	return lang, nil
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	k := input.K
	if k == 0 {
		k = domain.DefaultK
	}

	result, err := s.ports.Query.Query(ctx, input.Question, k)
	if err != nil {
		return nil, QueryOutput{}, toolError(err)
	}

	out := QueryOutput{
		Answer:    result.Answer,
		Citations: make([]CitationOutput, len(result.Citations)),
		Passages:  make([]PassageOutput, len(result.Retrieved)),
		Uncertain: result.Uncertain,
		K:         result.K,
	}
	for i, c := range result.Citations {
		out.Citations[i] = CitationOutput{DocumentID: c.DocumentID, Score: c.Score}
	}
	for i, r := range result.Retrieved {
		out.Passages[i] = PassageOutput{
			DocumentID: r.Chunk.DocumentID,
			ChunkID:    r.Chunk.ID,
			Position:   r.Chunk.Position,
			Score:      r.Score,
			Content:    r.Chunk.Content,
		}
	}
	return nil, out, nil
}

// handleLanguages handles the list_languages tool invocation.
func (s *Server) handleLanguages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ LanguagesInput,
) (*mcp.CallToolResult, LanguagesOutput, error) {
	var stats map[domain.Language]int
	if s.ports.Document != nil {
		var err error
		stats, err = s.ports.Document.LanguageStats(ctx)
		if err != nil {
			return nil, LanguagesOutput{}, toolError(err)
		}
	}

	var out LanguagesOutput
	for _, info := range domain.Languages() {
		out.Languages = append(out.Languages, LanguageOutput{
			Code:       string(info.Code),
			Name:       info.Name,
			NativeName: info.NativeName,
			Script:     info.ScriptName,
			Documents:  stats[info.Code],
		})
	}
	out.Undetermined = stats[domain.LanguageUndetermined]
	return nil, out, nil
}
