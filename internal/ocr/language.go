// Package ocr wraps an optical character recognition engine behind an
// asynchronous job contract and a blocking Text Reader built on top of it.
package ocr

// Language selects the OCR engine's trained model
type Language string

const (
	English Language = "eng"
	German  Language = "deu"
	French  Language = "fra"
	Spanish Language = "spa"
)

// normalize substitutes the default language for the zero value
func (l Language) normalize() Language {
	if l == "" {
		return English
	}
	return l
}
