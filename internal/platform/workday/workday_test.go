package workday

import (
	"net/url"
	"testing"

	"jobfleet/internal/platform"
)

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://acme.wd1.myworkdayjobs.com/careers")

	cases := []struct {
		href string
		want string
	}{
		{"/en-US/careers/job/12345", "https://acme.wd1.myworkdayjobs.com/en-US/careers/job/12345"},
		{"https://other.example/job/1", "https://other.example/job/1"},
	}
	for _, c := range cases {
		if got := resolveURL(base, c.href); got != c.want {
			t.Errorf("resolveURL(%q) = %q, want %q", c.href, got, c.want)
		}
	}
}

func TestResolveURLNilBaseReturnsHrefVerbatim(t *testing.T) {
	if got := resolveURL(nil, "/foo"); got != "/foo" {
		t.Errorf("resolveURL(nil, ...) = %q, want %q", got, "/foo")
	}
}

func TestNewRequiresOpenBrowser(t *testing.T) {
	_, err := New(nil, platform.Deps{})
	if err == nil {
		t.Fatal("New() error = nil, want error when OpenBrowser is nil")
	}
}
