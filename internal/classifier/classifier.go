package classifier

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

type IntentType string

const (
	IntentCalendar IntentType = "calendar"
	IntentTask     IntentType = "task"
	IntentNote     IntentType = "note"
	IntentBill     IntentType = "bill"
)

// ErrInputMissing is returned when the reacted-to message cannot be found in
// the message store. Queue retry semantics apply.
var ErrInputMissing = errors.New("classification input missing: message not found")

// triggerEmojis is the fixed recognized set. Any other reaction bypasses
// classification and goes down the simple-action path.
var triggerEmojis = map[string]IntentType{
	"📅": IntentCalendar,
	"✅": IntentTask,
	"📝": IntentNote,
	"💰": IntentBill,
}

// TriggerForEmoji maps a reaction emoji to an intent type.
func TriggerForEmoji(emoji string) (IntentType, bool) {
	intent, ok := triggerEmojis[emoji]
	return intent, ok
}

type Result struct {
	Type       IntentType
	Confidence float64
	Data       map[string]any
	Language   string
}

// Strategy turns message text plus a trigger into a structured intent. The
// rule set below is a placeholder; a scoring model can replace it without
// touching queue or retry logic.
type Strategy interface {
	Classify(text string, intent IntentType) (Result, error)
}

// ruleConfidence is deliberately a fixed constant rather than a score derived
// from extraction completeness. It sits above the 0.5 execution gate.
const ruleConfidence = 0.6

var (
	datePattern   = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	timePattern   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	amountPattern = regexp.MustCompile(`\$?(\d+[.,]\d{1,2})`)
	urgentPattern = regexp.MustCompile(`(?i)urgent`)
	// Latin diacritics and inverted punctuation as a crude Spanish signal.
	spanishPattern = regexp.MustCompile(`[áéíóúñü¿¡ÁÉÍÓÚÑÜ]`)
)

// Rules is the rule-based Strategy implementation.
type Rules struct{}

func NewRules() *Rules {
	return &Rules{}
}

func (r *Rules) Classify(text string, intent IntentType) (Result, error) {
	result := Result{
		Type:       intent,
		Confidence: ruleConfidence,
		Data:       map[string]any{},
		Language:   detectLanguage(text),
	}

	switch intent {
	case IntentCalendar:
		result.Data["title"] = truncate(text, 100)
		if m := datePattern.FindString(text); m != "" {
			result.Data["date"] = m
		}
		if m := timePattern.FindString(text); m != "" {
			result.Data["time"] = m
		}
	case IntentTask:
		result.Data["title"] = truncate(text, 100)
		if urgentPattern.MatchString(text) {
			result.Data["priority"] = "high"
		} else {
			result.Data["priority"] = "medium"
		}
	case IntentNote:
		result.Data["title"] = truncate(text, 50)
		result.Data["content"] = text
	case IntentBill:
		if m := amountPattern.FindStringSubmatch(text); m != nil {
			raw := strings.ReplaceAll(m[1], ",", ".")
			if amount, err := strconv.ParseFloat(raw, 64); err == nil {
				result.Data["amount"] = amount
			}
		}
	}

	return result, nil
}

func detectLanguage(text string) string {
	if spanishPattern.MatchString(text) {
		return "es"
	}
	return "en"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
