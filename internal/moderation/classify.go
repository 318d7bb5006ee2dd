package moderation

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/groupwarden/modbot/resources"
)

// SignalKind names one ad-likelihood detector.
type SignalKind string

const (
	SignalPhone         SignalKind = "phone"
	SignalMessengerLink SignalKind = "messenger_link"
	SignalInviteLink    SignalKind = "invite_link"
	SignalPriceWeight   SignalKind = "price_weight"
	SignalSellIntent    SignalKind = "sell_intent"
	SignalPayment       SignalKind = "payment"
	SignalPhoneOnly     SignalKind = "phone_only"
)

type (
	// SignalTable is the declarative detector set. The default table ships
	// embedded in resources/signals.yml and can be replaced wholesale
	// without touching any orchestration code.
	SignalTable struct {
		Signals []SignalSpec `yaml:"signals"`
	}

	SignalSpec struct {
		Kind        string `yaml:"kind"`
		Weight      int    `yaml:"weight"`
		Pattern     string `yaml:"pattern"`
		WholeString bool   `yaml:"whole_string"`
	}

	signal struct {
		kind   SignalKind
		weight int
		re     *regexp.Regexp
	}

	// Classifier scores text against a weighted signal table. It is pure
	// and safe for concurrent use.
	Classifier struct {
		signals []signal
	}

	// Result is the classifier verdict for one text blob.
	Result struct {
		Score   int
		Signals []SignalKind
	}
)

func ParseSignalTable(raw []byte) (SignalTable, error) {
	var table SignalTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return SignalTable{}, fmt.Errorf("unmarshal signal table: %w", err)
	}
	if len(table.Signals) == 0 {
		return SignalTable{}, fmt.Errorf("signal table has no entries")
	}
	return table, nil
}

func NewClassifier(table SignalTable) (*Classifier, error) {
	signals := make([]signal, 0, len(table.Signals))
	for _, spec := range table.Signals {
		if spec.Weight <= 0 {
			return nil, fmt.Errorf("signal %q: weight must be positive", spec.Kind)
		}
		pattern := spec.Pattern
		if spec.WholeString {
			pattern = `\A(?:` + pattern + `)\z`
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("signal %q: compile pattern: %w", spec.Kind, err)
		}
		signals = append(signals, signal{kind: SignalKind(spec.Kind), weight: spec.Weight, re: re})
	}
	return &Classifier{signals: signals}, nil
}

// NewDefaultClassifier builds a classifier from the embedded signal table.
func NewDefaultClassifier() (*Classifier, error) {
	raw, err := resources.FS.ReadFile("signals.yml")
	if err != nil {
		return nil, fmt.Errorf("read embedded signal table: %w", err)
	}
	table, err := ParseSignalTable(raw)
	if err != nil {
		return nil, err
	}
	return NewClassifier(table)
}

// Classify scores the text against every signal in table order. Same
// input always yields the same result; empty or whitespace-only text
// scores zero.
func (c *Classifier) Classify(text string) Result {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Result{}
	}
	var res Result
	for _, s := range c.signals {
		if s.re.MatchString(t) {
			res.Score += s.weight
			res.Signals = append(res.Signals, s.kind)
		}
	}
	return res
}
