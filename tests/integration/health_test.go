//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestHealthProbes(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		resp := do(t, http.MethodGet, path, nil)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		body := decodeJSON[healthResponse](t, resp)
		resp.Body.Close()

		if body.Status != "ok" {
			t.Fatalf("%s: status %q, checks %v", path, body.Status, body.Checks)
		}
	}
}
