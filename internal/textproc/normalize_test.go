package textproc

import "testing"

func TestNormalizeStripsColorCodes(t *testing.T) {
	stop := NewStopwordSet()
	got := Normalize("Header #EAE6FF styled section", stop)
	if got != "header styled section" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestNormalizeStripsMarkup(t *testing.T) {
	stop := NewStopwordSet()
	got := Normalize("<h1>Billing Guide</h1><p>Update invoices <b>weekly</b></p>", stop)
	if got != "billing guide update invoices weekly" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestNormalizeDropsScriptBodies(t *testing.T) {
	stop := NewStopwordSet()
	got := Normalize("<p>visible</p><script>var hidden = 1;</script>", stop)
	if got != "visible" {
		t.Fatalf("expected script body dropped, got %q", got)
	}
}

func TestNormalizeRemovesStopwords(t *testing.T) {
	stop := NewStopwordSet()
	got := Normalize("This is the quarterly billing report", stop)
	if got != "quarterly billing report" {
		t.Fatalf("unexpected stopword filtering: %q", got)
	}
}

func TestNormalizeExtraStopwords(t *testing.T) {
	stop := NewStopwordSet("billing")
	got := Normalize("quarterly billing report", stop)
	if got != "quarterly report" {
		t.Fatalf("expected extra stopword removed, got %q", got)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	stop := NewStopwordSet()
	for _, in := range []string{"", "   ", "\n\t"} {
		if got := Normalize(in, stop); got != "" {
			t.Fatalf("Normalize(%q) = %q, want empty", in, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	stop := NewStopwordSet()
	inputs := []string{
		"<p>The dashboard now supports exporting to CSV.</p>",
		"Release #FF0000 notes: v2.1 shipped! Contact support&nbsp;team.",
		"plain lowercase text already normalized",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in, stop)
		twice := Normalize(once, stop)
		if once != twice {
			t.Fatalf("normalization not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	stop := NewStopwordSet()
	got := Normalize("alpha \n\n  beta\t\tgamma  ", stop)
	if got != "alpha beta gamma" {
		t.Fatalf("unexpected whitespace handling: %q", got)
	}
}

func TestStripMarkupSeparatesTags(t *testing.T) {
	got := StripMarkup("<td>first</td><td>second</td>")
	if got != "first second" {
		t.Fatalf("expected single-space separator at tag boundaries, got %q", got)
	}
}
