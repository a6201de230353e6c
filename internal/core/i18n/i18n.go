package i18n

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var localesFS embed.FS

// Translations holds all translation strings organized by section
type Translations struct {
	Errors   ErrorTranslations    `yaml:"errors"`
	Extract  ExtractTranslations  `yaml:"extract"`
	Download DownloadTranslations `yaml:"download"`
	Server   ServerTranslations   `yaml:"server"`
}

// ErrorTranslations are the user-facing messages for failed extractions
type ErrorTranslations struct {
	InvalidInput   string `yaml:"invalid_input"`
	NotFound       string `yaml:"not_found"`
	FetchFailed    string `yaml:"fetch_failed"`
	Unauthorized   string `yaml:"unauthorized"`
	ConfigNotFound string `yaml:"config_not_found"`
}

type ExtractTranslations struct {
	Extracting string `yaml:"extracting"`
	Title      string `yaml:"title"`
	Link       string `yaml:"link"`
	Summary    string `yaml:"summary"`
}

type DownloadTranslations struct {
	Downloading string `yaml:"downloading"`
	Completed   string `yaml:"completed"`
	Failed      string `yaml:"failed"`
	FileSaved   string `yaml:"file_saved"`
	Elapsed     string `yaml:"elapsed"`
	AvgSpeed    string `yaml:"avg_speed"`
	Progress    string `yaml:"progress"`
	Speed       string `yaml:"speed"`
	ETA         string `yaml:"eta"`
	CancelHint  string `yaml:"cancel_hint"`
}

type ServerTranslations struct {
	NoConfigWarning string `yaml:"no_config_warning"`
	RunInitHint     string `yaml:"run_init_hint"`
}

var (
	translationsCache = make(map[string]*Translations)
	cacheMutex        sync.RWMutex
	defaultLang       = "en"
)

// SupportedLanguages returns all available language codes
var SupportedLanguages = []struct {
	Code string
	Name string
}{
	{"en", "English"},
	{"zh", "中文"},
}

// GetTranslations returns translations for the specified language
func GetTranslations(lang string) *Translations {
	cacheMutex.RLock()
	if t, ok := translationsCache[lang]; ok {
		cacheMutex.RUnlock()
		return t
	}
	cacheMutex.RUnlock()

	// Load from file
	t, err := loadTranslations(lang)
	if err != nil {
		// Fall back to English
		if lang != defaultLang {
			return GetTranslations(defaultLang)
		}
		// Return empty translations if even English fails
		return &Translations{}
	}

	cacheMutex.Lock()
	translationsCache[lang] = t
	cacheMutex.Unlock()

	return t
}

func loadTranslations(lang string) (*Translations, error) {
	filename := fmt.Sprintf("locales/%s.yml", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var t Translations
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// T is a convenience function for getting translations
func T(lang string) *Translations {
	return GetTranslations(lang)
}
