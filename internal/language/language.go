// Package language holds the closed set of tutoring languages together with
// their translation codes, system prompts and the few UI strings the client
// controller writes into conversations.
package language

import (
	"strings"
)

type Language string

const (
	English		Language	= "English"
	Tibetan		Language	= "བོད་མི (Tibetan)"
	Hawaiian	Language	= "ʻŌlelo Hawaiʻi (Hawaiian)"
	Telugu		Language	= "తెలుగు (Telugu)"
)

// PivotCode is the translation code every user turn is normalized to.
const PivotCode = "en"

type entry struct {
	name	string
	label	string
	code	string
	prompt	string
	ui	UIText
}

// UIText is the subset of localized strings injected into conversations.
type UIText struct {
	NewChat			string
	LimitReached		string
	LimitPlaceholder	string
	ChatPlaceholder		string
	Error			string
}

var all = []Language{English, Tibetan, Hawaiian, Telugu}

var table = map[Language]entry{
	English: {
		name:	"English",
		label:	"English",
		code:	"en",
		prompt:	englishPrompt,
		ui: UIText{
			NewChat:		"New Chat",
			LimitReached:		"You have reached your free usage limit.",
			LimitPlaceholder:	"You have reached the free limit. Please log in to continue.",
			ChatPlaceholder:	"Please enter your math question. Use clear, direct language.",
			Error:			"Sorry, I couldn't get a response. Please try again.",
		},
	},
	Tibetan: {
		name:	"Tibetan",
		label:	"བོད་མི",
		code:	"bo",
		prompt:	tibetanPrompt,
		ui: UIText{
			NewChat:		"གླེང་མོལ་གསར་པ།",
			LimitReached:		"ཁྱེད་ཀྱིས་རིན་མེད་བེད་སྤྱོད་ཀྱི་ཚད་ལ་སླེབས་འདུག",
			LimitPlaceholder:	"ནང་འཛུལ་བྱས་ནས་མུ་མཐུད...",
			ChatPlaceholder:	"འདིར་རྩིས་ཀྱི་དྲི་བ་འགོད་རོགས།",
			Error:			"དགོངས་དག ལན་ཞིག་འཚོལ་མ་ཐུབ་སོང་།",
		},
	},
	Hawaiian: {
		name:	"Hawaiian",
		label:	"ʻŌlelo Hawaiʻi",
		code:	"haw",
		prompt:	hawaiianPrompt,
		ui: UIText{
			NewChat:		"Kamaʻilio Hou",
			LimitReached:		"Ua hiki ʻoe i ka palena hoʻohana manuahi.",
			LimitPlaceholder:	"Ua hiki ʻoe i ka palena manuahi. E ʻeʻe mai e hoʻomau.",
			ChatPlaceholder:	"E kākau i kāu nīnau makemakika.",
			Error:			"E kala mai, ʻaʻole i loaʻa kekahi pane. E ʻoluʻolu e hoʻāʻo hou.",
		},
	},
	Telugu: {
		name:	"Telugu",
		label:	"తెలుగు",
		code:	"te",
		prompt:	teluguPrompt,
		ui: UIText{
			NewChat:		"కొత్త చాట్",
			LimitReached:		"మీరు మీ ఉచిత వినియోగ పరిమితిని చేరుకున్నారు.",
			LimitPlaceholder:	"ఉచిత పరిమితి ముగిసింది. కొనసాగించడానికి లాగిన్ చేయండి.",
			ChatPlaceholder:	"మీ గణిత ప్రశ్నను ఇక్కడ నమోదు చేయండి.",
			Error:			"క్షమించండి, సమాధానం పొందలేకపోయాను. దయచేసి మళ్ళీ ప్రయత్నించండి.",
		},
	},
}

// All returns the supported languages in display order.
func All() []Language {
	out := make([]Language, len(all))
	copy(out, all)
	return out
}

func (l Language) Known() bool {
	_, ok := table[l]
	return ok
}

// Code returns the translation service code; unknown languages get PivotCode.
func (l Language) Code() string {
	if e, ok := table[l]; ok {
		return e.code
	}
	return PivotCode
}

// IsPivot reports whether text in l needs no translation.
func (l Language) IsPivot() bool {
	return l.Code() == PivotCode
}

func (l Language) Label() string {
	if e, ok := table[l]; ok {
		return e.label
	}
	return string(l)
}

// SystemPrompt returns the tutoring prompt for l, falling back to English.
func (l Language) SystemPrompt() string {
	if e, ok := table[l]; ok {
		return e.prompt
	}
	return englishPrompt
}

func (l Language) UI() UIText {
	if e, ok := table[l]; ok {
		return e.ui
	}
	return table[English].ui
}

// Parse resolves a wire value, an English name or a translation code.
func Parse(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	if _, ok := table[Language(s)]; ok {
		return Language(s), true
	}
	for _, l := range all {
		e := table[l]
		if strings.EqualFold(s, e.name) || strings.EqualFold(s, e.code) || s == e.label {
			return l, true
		}
	}
	return "", false
}
