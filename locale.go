package cheese

import (
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supportedLanguages = []language.Tag{
	language.English, // First is the fallback.
	language.German,
	language.French,
}

// Translations for user-facing messages, keyed by the English text.
var translations = map[language.Tag]map[string]string{
	language.German: {
		"Unknown device":                           "Unbekanntes Gerät",
		"Device capabilities not supported":        "Gerätefähigkeiten werden nicht unterstützt",
		"Cancellable initialization not supported": "Abbrechbare Initialisierung wird nicht unterstützt",
		"Failed to initialize device %s for capability probing": "Gerät %s konnte für die Abfrage der Fähigkeiten nicht initialisiert werden",
		"Take photos and videos with your webcam":               "Mit der Webcam Fotos und Videos aufnehmen",
	},
	language.French: {
		"Unknown device":                           "Périphérique inconnu",
		"Device capabilities not supported":        "Capacités du périphérique non prises en charge",
		"Cancellable initialization not supported": "Initialisation annulable non prise en charge",
		"Failed to initialize device %s for capability probing": "Impossible d'initialiser le périphérique %s pour sonder ses capacités",
		"Take photos and videos with your webcam":               "Prendre des photos et des vidéos avec votre webcam",
	},
}

var (
	printerMu sync.Mutex
	printer   *message.Printer
)

func init() {
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	SetLanguage(envLanguage())
}

// envLanguage returns the language from the environment, following the
// gettext precedence of LC_ALL, LC_MESSAGES and LANG.
func envLanguage() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// SetLanguage selects the language for T. The value may be a POSIX locale
// like "de_DE.UTF-8" or a BCP 47 tag. Unknown languages fall back to English.
func SetLanguage(lang string) {
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.ReplaceAll(lang, "_", "-")
	tag := language.English
	if lang != "" && lang != "C" && lang != "POSIX" {
		matcher := language.NewMatcher(supportedLanguages)
		_, i, conf := matcher.Match(language.Make(lang))
		if conf != language.No {
			tag = supportedLanguages[i]
		}
	}

	printerMu.Lock()
	printer = message.NewPrinter(tag)
	printerMu.Unlock()
}

// T returns the translation of the message key in the selected language,
// formatted with args like fmt.Sprintf.
func T(key string, args ...interface{}) string {
	printerMu.Lock()
	p := printer
	printerMu.Unlock()
	return p.Sprintf(key, args...)
}
