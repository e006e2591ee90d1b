package domain

// TokenClass is a kind of token the translator carries through unchanged
// when no validated translation exists for it.
type TokenClass string

// Preserved token classes.
const (
	TokenDate       TokenClass = "date"
	TokenNumeral    TokenClass = "numeral"
	TokenProperNoun TokenClass = "proper_noun"
)

// AllTokenClasses returns every preservable token class.
func AllTokenClasses() []TokenClass {
	return []TokenClass{TokenDate, TokenNumeral, TokenProperNoun}
}

// GazetteerEntry is a proper noun with its validated renderings.
type GazetteerEntry struct {
	// Name is the form matched in source text.
	Name string

	// Translations maps a language to its validated rendering of Name.
	// A missing language means the name is emitted verbatim.
	Translations map[Language]string
}

// TranslationRequest is the input of a translation.
type TranslationRequest struct {
	Text   string
	Source Language
	Target Language
}

// TranslationResult is the output of a translation. It is not persisted.
type TranslationResult struct {
	// Text is the translated text.
	Text string `json:"translated_text"`

	// Source and Target echo the resolved languages.
	Source Language `json:"source_language"`
	Target Language `json:"target_language"`

	// EntitiesPreserved lists literal tokens carried through unchanged.
	EntitiesPreserved []string `json:"entities_preserved"`

	// Segments is the number of units sent to the backend per hop.
	Segments int `json:"segments"`

	// LocalContext is true when the text was split and each segment was
	// translated without sight of its neighbours.
	LocalContext bool `json:"local_context"`

	// Path lists the languages visited, including any pivot.
	Path []Language `json:"path"`
}
