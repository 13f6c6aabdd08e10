package format

import "testing"

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`Ali <b>"Valiyev"</b> & co`)
	want := "Ali &lt;b&gt;&quot;Valiyev&quot;&lt;/b&gt; &amp; co"
	if got != want {
		t.Fatalf("EscapeHTML = %s, want %s", got, want)
	}
	if Fallback("  ", "-") != "-" || Fallback("x", "-") != "x" {
		t.Fatal("Fallback mismatch")
	}
}
