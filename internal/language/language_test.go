package language

import "testing"

func TestToISO1(t *testing.T) {
	tests := map[string]string{
		"en":    "en",
		"eng":   "en",
		"ENG":   "en",
		"ger":   "de",
		"deu":   "de",
		"fre":   "fr",
		"en-US": "en",
		"und":   "",
		"":      "",
		"e1":    "",
	}
	for input, want := range tests {
		if got := ToISO1(input); got != want {
			t.Fatalf("ToISO1(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestToISO3(t *testing.T) {
	if got := ToISO3("en"); got != "eng" {
		t.Fatalf("ToISO3(en) = %q", got)
	}
	if got := ToISO3("chi"); got != "zho" {
		t.Fatalf("ToISO3(chi) = %q", got)
	}
}

func TestMatches(t *testing.T) {
	if !Matches("eng", "en") {
		t.Fatal("expected eng to match en")
	}
	if !Matches("dut", "nl") {
		t.Fatal("expected dut to match nl")
	}
	if Matches("en", "fr") {
		t.Fatal("expected en not to match fr")
	}
	if Matches("", "en") {
		t.Fatal("expected empty code not to match")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("spa"); got != "Spanish" {
		t.Fatalf("DisplayName(spa) = %q", got)
	}
	if got := DisplayName("??"); got != "??" {
		t.Fatalf("DisplayName(??) = %q", got)
	}
}
