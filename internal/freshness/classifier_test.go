package freshness

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubLookup struct {
	ts  time.Time
	err error
}

func (s *stubLookup) FirstTxTimestamp(context.Context, string) (time.Time, error) {
	return s.ts, s.err
}

func TestAgeMinutes_FromFirstTransaction(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	classifier := NewClassifier(&stubLookup{ts: now.Add(-2 * time.Minute)}, Config{})
	classifier.now = func() time.Time { return now }

	age := classifier.AgeMinutes(context.Background(), "0xabc")
	if age != 2 {
		t.Errorf("expected age 2 minutes, got %.2f", age)
	}
	if !classifier.Eligible(age) {
		t.Error("2 minute old token should be eligible")
	}
}

func TestAgeMinutes_NoHistoryMeansVeryFresh(t *testing.T) {
	classifier := NewClassifier(&stubLookup{err: ErrNoHistory}, Config{})

	age := classifier.AgeMinutes(context.Background(), "0xabc")
	if age != ageOnEmptyHistory {
		t.Errorf("expected %.2f, got %.2f", ageOnEmptyHistory, age)
	}
	if !classifier.Eligible(age) {
		t.Error("no-history token should be eligible")
	}
}

func TestAgeMinutes_LookupErrorAssumesFresh(t *testing.T) {
	classifier := NewClassifier(&stubLookup{err: errors.New("timeout")}, Config{})

	age := classifier.AgeMinutes(context.Background(), "0xabc")
	if age != ageOnLookupError {
		t.Errorf("expected %.2f, got %.2f", ageOnLookupError, age)
	}
}

func TestEligible_Ceiling(t *testing.T) {
	classifier := NewClassifier(&stubLookup{}, Config{MaxAgeMinutes: 3})

	if !classifier.Eligible(3) {
		t.Error("age equal to ceiling should be eligible")
	}
	if classifier.Eligible(3.01) {
		t.Error("age above ceiling should not be eligible")
	}
}

func TestDenied_IsCaseInsensitive(t *testing.T) {
	classifier := NewClassifier(&stubLookup{}, Config{
		Denylist: []string{"0xBB4CdB9CBd36B01bD1cBaeBF2De08d9173bc095c"},
	})

	if !classifier.Denied("0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c") {
		t.Error("denylist match should be case-insensitive")
	}
	if classifier.Denied("0x0000000000000000000000000000000000000001") {
		t.Error("unknown address should not be denied")
	}
}

func TestAgeMinutes_FutureTimestampClampsToZero(t *testing.T) {
	classifier := NewClassifier(&stubLookup{ts: time.Now().Add(time.Minute)}, Config{})

	if age := classifier.AgeMinutes(context.Background(), "0xabc"); age != 0 {
		t.Errorf("expected clamped age 0, got %.2f", age)
	}
}
