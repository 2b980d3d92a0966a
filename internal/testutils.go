package internal

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/minaorangina/fantan/deck"
)

// FailureMessage reports a got/want mismatch
func FailureMessage(t *testing.T, got, want interface{}) {
	t.Helper()
	t.Errorf("\nGot: %+v\nWant: %+v", got, want)
}

// AssertNoError checks for the non-existence of an error
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
}

// AssertErrored checks for the existence of an error
func AssertErrored(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		t.Fatal("Expected an error, but got nil")
	}
}

// AssertEqual checks that the values are equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()

	if got != want {
		FailureMessage(t, got, want)
	}
}

// AssertDeepEqual checks that the values are deeply equal
func AssertDeepEqual(t *testing.T, got, want interface{}) {
	t.Helper()

	if !reflect.DeepEqual(got, want) {
		FailureMessage(t, got, want)
	}
}

// AssertTrue checks that the value is true
func AssertTrue(t *testing.T, got bool) {
	t.Helper()

	if !got {
		t.Error("Expected to be true, but it wasn't")
	}
}

// AssertCards compares two card slices in order, printing them in short form
func AssertCards(t *testing.T, got, want []deck.Card) {
	t.Helper()

	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("\nGot cards: %s\nWant cards: %s", shortCards(got), shortCards(want))
	}
}

func shortCards(cards []deck.Card) string {
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		parts = append(parts, c.Short())
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}

// Cards builds a slice of cards from short ids like "♥7" or "♣10"
func Cards(t *testing.T, shorts ...string) []deck.Card {
	t.Helper()

	out := make([]deck.Card, 0, len(shorts))
	for _, s := range shorts {
		symbol, label := s[:len("♥")], s[len("♥"):]
		id := symbol + "-" + labelToNumber(label)
		c, err := deck.ParseID(id)
		if err != nil {
			t.Fatalf("bad card %q: %v", s, err)
		}
		out = append(out, c)
	}
	return out
}

func labelToNumber(label string) string {
	switch label {
	case "A":
		return "1"
	case "J":
		return "11"
	case "Q":
		return "12"
	case "K":
		return "13"
	}
	return label
}

// Within fails the test if assert does not return within d
func Within(t *testing.T, d time.Duration, assert func()) {
	t.Helper()

	done := make(chan struct{}, 1)

	go func() {
		assert()
		done <- struct{}{}
	}()

	select {
	case <-time.After(d):
		t.Error("timed out")
	case <-done:
	}
}
