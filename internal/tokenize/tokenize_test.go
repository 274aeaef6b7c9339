package tokenize

import "testing"

func TestFormsSplitsOnWordBoundaries(t *testing.T) {
	tok := New()
	got := tok.Forms("Hello, world! It's 2026.")
	want := []string{"Hello", "world", "It's", "2026"}
	if len(got) != len(want) {
		t.Fatalf("Forms() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Forms()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokensPopulatesFormAndRawLemma(t *testing.T) {
	tok := New()
	got := tok.Tokens("Alice Smith")
	if len(got) != 2 {
		t.Fatalf("Tokens() returned %d tokens, want 2", len(got))
	}
	if got[0].Form != "Alice" || got[0].RawLemma != "Alice" {
		t.Errorf("Tokens()[0] = %+v", got[0])
	}
}

func TestFormsEmptyInput(t *testing.T) {
	tok := New()
	if got := tok.Forms(""); len(got) != 0 {
		t.Errorf("Forms(\"\") = %v, want empty", got)
	}
}
