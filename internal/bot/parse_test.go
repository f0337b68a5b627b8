package bot

import "testing"

func TestParse(t *testing.T) {
	t.Parallel()

	cmd := Parse("  /GantiNama SIAku Bot  ")
	if cmd.Name != "/gantinama" {
		t.Errorf("Name = %q, want /gantinama", cmd.Name)
	}
	if cmd.ArgText() != "SIAku Bot" {
		t.Errorf("ArgText = %q, want %q", cmd.ArgText(), "SIAku Bot")
	}
	if len(cmd.Args) != 2 {
		t.Errorf("Args = %v, want 2 tokens", cmd.Args)
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	cmd := Parse("   ")
	if cmd.Name != "" || len(cmd.Args) != 0 {
		t.Errorf("Parse(blank) = %+v, want zero command", cmd)
	}
}

func TestParseKeepsArgumentCasing(t *testing.T) {
	t.Parallel()

	cmd := Parse("/login Budi123 RahasiaKu")
	if cmd.Args[0] != "Budi123" || cmd.Args[1] != "RahasiaKu" {
		t.Errorf("Args = %v, casing must be preserved", cmd.Args)
	}
}

func TestIsVerificationCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"123 456", false},
		{"/jadiowner", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Parse(tc.in).IsVerificationCode(); got != tc.want {
			t.Errorf("IsVerificationCode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTarget(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"+62 812-3456", "628123456"},
		{"628123456", "628123456"},
		{"abc", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTarget(tc.in); got != tc.want {
			t.Errorf("NormalizeTarget(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
