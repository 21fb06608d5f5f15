// Package config loads and saves vision settings from INI files.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Settings holds tunables for the vision facade and its collaborators
type Settings struct {
	// Capture
	DisplayIndex int

	// Matching
	Method        string  // SAD, SSD or NCC
	MinConfidence float64 // Default threshold for pattern searches
	MaxCandidates int

	// Text recognition
	OCRLanguage    string
	TessdataPrefix string

	// Templates
	TemplateDir string

	// Output
	SaveDir string

	// Logging
	LogLevel       string
	LogDir         string
	LoggingEnabled bool
}

// NewDefaultSettings creates settings with default values
func NewDefaultSettings() *Settings {
	return &Settings{
		DisplayIndex:   0,
		Method:         "NCC",
		MinConfidence:  0.8,
		MaxCandidates:  32,
		OCRLanguage:    "eng",
		TemplateDir:    "templates",
		SaveDir:        "captures",
		LogLevel:       "INFO",
		LogDir:         "logs",
		LoggingEnabled: true,
	}
}

// LoadFromINI loads settings from an INI file. Missing keys fall back to
// defaults.
func LoadFromINI(path string) (*Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section("Vision")
	settings := NewDefaultSettings()

	settings.DisplayIndex = section.Key("displayIndex").MustInt(settings.DisplayIndex)
	settings.Method = section.Key("matchMethod").MustString(settings.Method)
	settings.MinConfidence = section.Key("minConfidence").MustFloat64(settings.MinConfidence)
	settings.MaxCandidates = section.Key("maxCandidates").MustInt(settings.MaxCandidates)

	settings.OCRLanguage = section.Key("ocrLanguage").MustString(settings.OCRLanguage)
	settings.TessdataPrefix = section.Key("tessdataPrefix").MustString(settings.TessdataPrefix)

	settings.TemplateDir = section.Key("templateDir").MustString(settings.TemplateDir)
	settings.SaveDir = section.Key("saveDir").MustString(settings.SaveDir)

	settings.LogLevel = strings.ToUpper(section.Key("logLevel").MustString(settings.LogLevel))
	settings.LogDir = section.Key("logDir").MustString(settings.LogDir)
	settings.LoggingEnabled = section.Key("loggingEnabled").MustBool(settings.LoggingEnabled)

	if settings.MinConfidence < 0 || settings.MinConfidence > 1 {
		return nil, fmt.Errorf("minConfidence must be in [0,1], got %v", settings.MinConfidence)
	}
	if settings.DisplayIndex < 0 {
		return nil, fmt.Errorf("displayIndex must be non-negative, got %d", settings.DisplayIndex)
	}
	switch settings.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return nil, fmt.Errorf("unknown logLevel %q", settings.LogLevel)
	}

	return settings, nil
}

// SaveToINI saves settings to an INI file
func SaveToINI(settings *Settings, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("Vision")

	section.Key("displayIndex").SetValue(fmt.Sprintf("%d", settings.DisplayIndex))
	section.Key("matchMethod").SetValue(settings.Method)
	section.Key("minConfidence").SetValue(fmt.Sprintf("%g", settings.MinConfidence))
	section.Key("maxCandidates").SetValue(fmt.Sprintf("%d", settings.MaxCandidates))

	section.Key("ocrLanguage").SetValue(settings.OCRLanguage)
	section.Key("tessdataPrefix").SetValue(settings.TessdataPrefix)

	section.Key("templateDir").SetValue(settings.TemplateDir)
	section.Key("saveDir").SetValue(settings.SaveDir)

	section.Key("logLevel").SetValue(settings.LogLevel)
	section.Key("logDir").SetValue(settings.LogDir)
	section.Key("loggingEnabled").SetValue(fmt.Sprintf("%t", settings.LoggingEnabled))

	return cfg.SaveTo(path)
}
