package moderation

import (
	"reflect"
	"testing"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	classifier, err := NewDefaultClassifier()
	if err != nil {
		t.Fatalf("build default classifier: %v", err)
	}
	return classifier
}

func TestClassifyEmptyText(t *testing.T) {
	t.Parallel()
	classifier := newTestClassifier(t)

	for _, text := range []string{"", "   ", "\n\t "} {
		res := classifier.Classify(text)
		if res.Score != 0 || len(res.Signals) != 0 {
			t.Fatalf("Classify(%q) = %#v, want zero result", text, res)
		}
	}
}

func TestClassifySignals(t *testing.T) {
	t.Parallel()
	classifier := newTestClassifier(t)

	tests := []struct {
		name        string
		text        string
		wantScore   int
		wantSignals []SignalKind
	}{
		{
			name:      "plain chatter",
			text:      "good morning everyone, lovely weather today",
			wantScore: 0,
		},
		{
			name:        "phone number in sentence",
			text:        "call me on 0770 090 0123 later",
			wantScore:   3,
			wantSignals: []SignalKind{SignalPhone},
		},
		{
			name:        "whatsapp link",
			text:        "join wa.me/qwerty for more",
			wantScore:   4,
			wantSignals: []SignalKind{SignalMessengerLink},
		},
		{
			name:        "telegram invite",
			text:        "https://t.me/joinchat/AbCd_123 come through",
			wantScore:   3,
			wantSignals: []SignalKind{SignalInviteLink},
		},
		{
			name:        "price per weight",
			text:        "best quality £40 per gram around",
			wantScore:   3,
			wantSignals: []SignalKind{SignalPriceWeight},
		},
		{
			name:        "sell keywords",
			text:        "we are selling in bulk, dm for price",
			wantScore:   3,
			wantSignals: []SignalKind{SignalSellIntent},
		},
		{
			name:        "payment method",
			text:        "pay by paypal or btc only",
			wantScore:   2,
			wantSignals: []SignalKind{SignalPayment},
		},
		{
			name:        "contact-only message gets the bonus",
			text:        "+44 7700 900123",
			wantScore:   5,
			wantSignals: []SignalKind{SignalPhone, SignalPhoneOnly},
		},
		{
			name:      "full dealer ad stacks weights",
			text:      "Selling top shelf. £40 per g. DM wa.me/qwerty or call 0770 090 0123. Paypal accepted.",
			wantScore: 15,
			wantSignals: []SignalKind{
				SignalPhone, SignalMessengerLink, SignalPriceWeight, SignalSellIntent, SignalPayment,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := classifier.Classify(tt.text)
			if res.Score != tt.wantScore {
				t.Fatalf("Classify(%q).Score = %d, want %d (signals %v)", tt.text, res.Score, tt.wantScore, res.Signals)
			}
			if tt.wantSignals != nil && !reflect.DeepEqual(res.Signals, tt.wantSignals) {
				t.Fatalf("Classify(%q).Signals = %v, want %v", tt.text, res.Signals, tt.wantSignals)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()
	classifier := newTestClassifier(t)

	text := "selling bulk, wa.me/abc, £20 per g, paypal"
	first := classifier.Classify(text)
	for i := 0; i < 50; i++ {
		if got := classifier.Classify(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: Classify returned %#v, previously %#v", i, got, first)
		}
	}
}

func TestClassifyMonotonicInSignals(t *testing.T) {
	t.Parallel()
	classifier := newTestClassifier(t)

	base := "we are selling in bulk today"
	extended := base + " payment via paypal"
	baseScore := classifier.Classify(base).Score
	extendedScore := classifier.Classify(extended).Score
	if extendedScore < baseScore {
		t.Fatalf("adding a signal lowered the score: %d -> %d", baseScore, extendedScore)
	}
	if extendedScore != baseScore+2 {
		t.Fatalf("payment signal should add 2: got %d from base %d", extendedScore, baseScore)
	}
}

func TestNewClassifierRejectsBadTable(t *testing.T) {
	t.Parallel()

	if _, err := NewClassifier(SignalTable{Signals: []SignalSpec{{Kind: "broken", Weight: 1, Pattern: "("}}}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if _, err := NewClassifier(SignalTable{Signals: []SignalSpec{{Kind: "weightless", Weight: 0, Pattern: "x"}}}); err == nil {
		t.Fatal("expected error for non-positive weight")
	}
	if _, err := ParseSignalTable([]byte("signals: []")); err == nil {
		t.Fatal("expected error for empty table")
	}
}
