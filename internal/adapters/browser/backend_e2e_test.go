//go:build e2e

package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/autopilot/internal/adapters/browser"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body style="margin:0">
<input id="name" style="position:absolute;left:0;top:0;width:200px;height:40px">
<div id="box" style="position:absolute;left:0;top:100px;width:50px;height:50px;background:#00ff00">Ready</div>
</body></html>`

func TestBackend_Page(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := browser.New(ctx, browser.Config{URL: srv.URL, Headless: true})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.MoveAndClick(ctx, 20, 20))
	require.NoError(t, b.TypeText(ctx, "bob"))
	require.NoError(t, b.PressKey(ctx, ports.KeyBackspace))

	text, err := b.SampleRegionText(ctx, domain.Rect{W: 200, H: 40})
	require.NoError(t, err)
	assert.Equal(t, "bo", text)

	text, err = b.SampleRegionText(ctx, domain.Rect{Y: 100, W: 50, H: 50})
	require.NoError(t, err)
	assert.Equal(t, "Ready", text)

	c, err := b.SampleRegionColor(ctx, domain.Rect{Y: 100, W: 50, H: 50})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), c.G)
}
