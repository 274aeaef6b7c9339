package sentsplit

import (
	"reflect"
	"testing"
)

func TestSplitOnTerminators(t *testing.T) {
	got := Split("Alice met Bob. They went to Paris! Did they enjoy it?")
	want := []string{"Alice met Bob.", "They went to Paris!", "Did they enjoy it?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %v, want %v", got, want)
	}
}

func TestSplitOnNewlines(t *testing.T) {
	got := Split("Alice\nBob\n\nCarol")
	want := []string{"Alice", "Bob", "Carol"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %v, want %v", got, want)
	}
}

func TestSplitDoesNotBreakOnDecimalPoint(t *testing.T) {
	got := Split("3.14 is pi.")
	if len(got) != 1 || got[0] != "3.14 is pi." {
		t.Errorf("Split() = %v, want one sentence (decimal point not a terminator)", got)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if got := Split("   \n  "); len(got) != 0 {
		t.Errorf("Split() = %v, want empty", got)
	}
}
