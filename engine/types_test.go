package engine

import "testing"

func TestCanonIdempotent(t *testing.T) {
	cases := []string{
		"Flask",
		"PyYAML",
		"zope.interface",
		"typing_extensions",
		"Foo--Bar__Baz..Qux",
		"",
	}
	for _, c := range cases {
		once := Canon(c)
		twice := Canon(string(once))
		if once != twice {
			t.Errorf("Canon not idempotent for %q: Canon=%q Canon(Canon)=%q", c, once, twice)
		}
	}
}

func TestCanonEquatesSeparatorVariants(t *testing.T) {
	cases := [][2]string{
		{"zope.interface", "zope-interface"},
		{"typing_extensions", "typing-extensions"},
		{"Flit-Core", "flit_core"},
		{"a...b", "a-b"},
	}
	for _, c := range cases {
		if Canon(c[0]) != Canon(c[1]) {
			t.Errorf("expected Canon(%q) == Canon(%q), got %q != %q", c[0], c[1], Canon(c[0]), Canon(c[1]))
		}
	}
}

func TestValidName(t *testing.T) {
	good := []string{"flask", "py-yaml", "zope.interface", "a_b-c.1"}
	bad := []string{"", "has space", "semi;colon", "pipe|char"}
	for _, g := range good {
		if !ValidName(g) {
			t.Errorf("expected %q to be a valid name", g)
		}
	}
	for _, b := range bad {
		if ValidName(b) {
			t.Errorf("expected %q to be an invalid name", b)
		}
	}
}

func TestRequirementSkip(t *testing.T) {
	cases := []struct {
		name string
		req  Requirement
		want bool
	}{
		{"no marker", Requirement{Name: "flask"}, false},
		{"marker applies", Requirement{Name: "flask", Marker: &EnvMarker{Expr: "sys_platform == 'linux'", Applies: true}}, false},
		{"marker does not apply", Requirement{Name: "pywin32", Marker: &EnvMarker{Expr: "sys_platform == 'win32'", Applies: false}}, true},
	}
	for _, c := range cases {
		if got := c.req.Skip(); got != c.want {
			t.Errorf("%s: Skip() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestVersionSpecEmpty(t *testing.T) {
	if !VersionSpec("").Empty() {
		t.Error("expected empty VersionSpec to report Empty()")
	}
	if VersionSpec(">=1.0").Empty() {
		t.Error("expected non-empty VersionSpec to report !Empty()")
	}
}

func TestParseFetcherType(t *testing.T) {
	cases := []struct {
		token, repo string
		want        FetcherType
		ok          bool
	}{
		{"", "https://example.com/foo.git", FetcherGit, true},
		{"", "", FetcherNone, true},
		{"git", "anything", FetcherGit, true},
		{"hg", "anything", FetcherHg, true},
		{"system", "", FetcherSystem, true},
		{"pip", "", FetcherPip, true},
		{"none", "", FetcherNone, true},
		{"bogus", "", FetcherNone, false},
	}
	for _, c := range cases {
		got, ok := ParseFetcherType(c.token, c.repo)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseFetcherType(%q, %q) = (%v, %v), want (%v, %v)", c.token, c.repo, got, ok, c.want, c.ok)
		}
	}
}
