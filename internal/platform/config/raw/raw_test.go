package raw

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("LOG_SERVICE", " appimage-finder ")
	t.Setenv("LOG_FILE", "")

	log := New().Prefix("LOG_")
	if got := log.Get("SERVICE", "x"); got != "appimage-finder" {
		t.Fatalf("Get SERVICE = %q", got)
	}
	if got := log.Get("FILE", "none"); got != "none" {
		t.Fatalf("empty value should use default, got %q", got)
	}
	if got := log.Get("COMPONENT", "finder"); got != "finder" {
		t.Fatalf("unset value should use default, got %q", got)
	}
}

func TestOneOf(t *testing.T) {
	log := New().Prefix("LOG_")
	formats := []string{"console", "json"}

	cases := []struct {
		env  string
		want string
	}{
		{"json", "json"},
		{" JSON ", "json"},
		{"console", "console"},
		{"yaml", "console"},
		{"", "console"},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv("LOG_FORMAT", tc.env)
			if got := log.OneOf("FORMAT", "console", formats...); got != tc.want {
				t.Fatalf("OneOf(%q) = %q, want %q", tc.env, got, tc.want)
			}
		})
	}
}

func TestGetBool(t *testing.T) {
	log := New().Prefix("LOG_")

	cases := []struct {
		env  string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"  true  ", false, true},
		{"false", true, false},
		{"0", true, false},
		{"off", true, false},
		{"", true, true},
		{"", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv("LOG_CALLER", tc.env)
			if got := log.GetBool("CALLER", tc.def); got != tc.want {
				t.Fatalf("GetBool(%q, %v) = %v", tc.env, tc.def, got)
			}
		})
	}
}

func TestGetInt(t *testing.T) {
	log := New().Prefix("LOG_")

	cases := []struct {
		env  string
		want int
	}{
		{"42", 42},
		{"  7  ", 7},
		{"0", 0},
		{"12x", 50},
		{"-5", 50},
		{"", 50},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv("LOG_FILE_MAX_MB", tc.env)
			if got := log.GetInt("FILE_MAX_MB", 50); got != tc.want {
				t.Fatalf("GetInt(%q) = %d, want %d", tc.env, got, tc.want)
			}
		})
	}
}

func TestPrefixNesting(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("APPIMAGE_LOG_LEVEL", "debug")

	if got := New().Prefix("LOG_").Get("LEVEL", ""); got != "info" {
		t.Fatalf("LOG_LEVEL = %q", got)
	}
	if got := New().Prefix("APPIMAGE_").Prefix("LOG_").Get("LEVEL", ""); got != "debug" {
		t.Fatalf("APPIMAGE_LOG_LEVEL = %q", got)
	}
}
