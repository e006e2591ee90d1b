package domain

import (
	"strings"
	"unicode"
)

// Language identifies one of the supported document languages.
// The zero value is LanguageUndetermined.
type Language string

// Supported languages. Extend Languages() when adding one.
const (
	// LanguageUndetermined is returned when no language clears the detection threshold.
	LanguageUndetermined Language = ""

	// LanguageEnglish is the colonial-era administrative language.
	LanguageEnglish Language = "en"

	// LanguageHindi is written in Devanagari.
	LanguageHindi Language = "hi"

	// LanguageTamil is written in the Tamil script.
	LanguageTamil Language = "ta"
)

// LanguageInfo describes a supported language.
type LanguageInfo struct {
	// Code is the ISO 639-1 code.
	Code Language

	// Name is the English name.
	Name string

	// NativeName is the language's own name for itself.
	NativeName string

	// TesseractCode is the traineddata name used by the OCR engine.
	TesseractCode string

	// Script is the Unicode script the language is written in.
	Script *unicode.RangeTable

	// ScriptName is a human-readable script name.
	ScriptName string
}

// Languages returns the supported languages in priority order.
// Earlier entries have more OCR training support and win detection ties.
func Languages() []LanguageInfo {
	return []LanguageInfo{
		{
			Code: LanguageEnglish, Name: "English", NativeName: "English",
			TesseractCode: "eng", Script: unicode.Latin, ScriptName: "Latin",
		},
		{
			Code: LanguageHindi, Name: "Hindi", NativeName: "हिन्दी",
			TesseractCode: "hin", Script: unicode.Devanagari, ScriptName: "Devanagari",
		},
		{
			Code: LanguageTamil, Name: "Tamil", NativeName: "தமிழ்",
			TesseractCode: "tam", Script: unicode.Tamil, ScriptName: "Tamil",
		},
	}
}

// Info returns the descriptor for a supported language.
func (l Language) Info() (LanguageInfo, bool) {
	for _, info := range Languages() {
		if info.Code == l {
			return info, true
		}
	}
	return LanguageInfo{}, false
}

// IsSupported returns true if the language is in the supported set.
func (l Language) IsSupported() bool {
	_, ok := l.Info()
	return ok
}

// Priority returns the language's rank in the detection tie-break order.
// Lower is preferred. Unsupported languages rank last.
func (l Language) Priority() int {
	for i, info := range Languages() {
		if info.Code == l {
			return i
		}
	}
	return len(Languages())
}

// String returns the language code, or "undetermined".
func (l Language) String() string {
	if l == LanguageUndetermined {
		return "undetermined"
	}
	return string(l)
}

// Name returns the English name of the language.
func (l Language) Name() string {
	if info, ok := l.Info(); ok {
		return info.Name
	}
	return "Undetermined"
}

// ParseLanguage accepts an ISO code, an English name, a native name or a
// Tesseract code, case-insensitively.
func ParseLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	for _, info := range Languages() {
		if strings.EqualFold(s, string(info.Code)) ||
			strings.EqualFold(s, info.Name) ||
			s == info.NativeName ||
			strings.EqualFold(s, info.TesseractCode) {
			return info.Code, true
		}
	}
	return LanguageUndetermined, false
}

// TesseractCodes returns the traineddata names of all supported languages
// joined the way Tesseract expects for multi-language recognition.
func TesseractCodes() []string {
	langs := Languages()
	codes := make([]string, len(langs))
	for i, info := range langs {
		codes[i] = info.TesseractCode
	}
	return codes
}

// LanguageForRune returns the supported language whose script contains r.
func LanguageForRune(r rune) (Language, bool) {
	for _, info := range Languages() {
		if unicode.Is(info.Script, r) {
			return info.Code, true
		}
	}
	return LanguageUndetermined, false
}

// Detection is the outcome of language detection for a page or text.
type Detection struct {
	// Language is the detected language, or LanguageUndetermined.
	Language Language `json:"language"`

	// Confidence is the winning score in [0,1]; 0 when undetermined.
	Confidence float64 `json:"confidence"`

	// LowConfidence is set when another language scored within the
	// tie-break band and the priority order decided.
	LowConfidence bool `json:"low_confidence"`

	// Scores holds every supported language's share of the evidence.
	Scores map[Language]float64 `json:"scores,omitempty"`
}

// Determined returns true if a supported language was chosen.
func (d Detection) Determined() bool {
	return d.Language != LanguageUndetermined
}
