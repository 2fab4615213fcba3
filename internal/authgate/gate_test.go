package authgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		path          string
		want          Decision
	}{
		{name: "anonymous public root", authenticated: false, path: "/", want: Render},
		{name: "anonymous login", authenticated: false, path: "/login", want: Render},
		{name: "anonymous register", authenticated: false, path: "/register", want: Render},
		{name: "anonymous dashboard preview", authenticated: false, path: "/dashboard", want: Render},
		{name: "anonymous expenses", authenticated: false, path: "/expenses", want: RedirectToLogin},
		{name: "anonymous groups", authenticated: false, path: "/groups", want: RedirectToLogin},
		{name: "anonymous advisor", authenticated: false, path: "/advisor", want: RedirectToLogin},
		{name: "anonymous settings", authenticated: false, path: "/settings", want: RedirectToLogin},
		{name: "anonymous unknown path", authenticated: false, path: "/no-such-view", want: Render},
		{name: "authenticated dashboard", authenticated: true, path: "/dashboard", want: Render},
		{name: "authenticated expenses", authenticated: true, path: "/expenses", want: Render},
		{name: "authenticated settings", authenticated: true, path: "/settings", want: Render},
		{name: "authenticated login", authenticated: true, path: "/login", want: Render},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.authenticated, tc.path))
		})
	}
}

// Every protected path except the preview must redirect while anonymous, and
// every path must render once authenticated.
func TestDecideProperties(t *testing.T) {
	for path := range protectedPaths {
		assert.Equal(t, Render, Decide(true, path), "authenticated %s", path)

		want := RedirectToLogin
		if path == PreviewPath {
			want = Render
		}
		assert.Equal(t, want, Decide(false, path), "anonymous %s", path)
	}
}

func TestProtected(t *testing.T) {
	assert.True(t, Protected("/expenses"))
	assert.True(t, Protected("/dashboard"))
	assert.False(t, Protected("/"))
	assert.False(t, Protected("/login"))
	assert.False(t, Protected("/cards"))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "redirect_to_login", RedirectToLogin.String())
}
