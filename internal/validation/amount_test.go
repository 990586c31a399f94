package validation

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]float64{
		"0":       0,
		"100":     100,
		"2500.50": 2500.50,
		" 42 ":    42,
	}
	for input, want := range valid {
		got, err := ParseAmount(input)
		if err != nil {
			t.Errorf("ParseAmount(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAmount(%q) = %v, want %v", input, got, want)
		}
	}

	invalid := []string{
		"",
		"   ",
		"-1",
		"-0.01",
		"abc",
		"12abc",
		"NaN",
		"Inf",
		"+Inf",
		"-Inf",
	}
	for _, input := range invalid {
		_, err := ParseAmount(input)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q): expected ErrInvalidAmount, got %v", input, err)
		}
	}
}
