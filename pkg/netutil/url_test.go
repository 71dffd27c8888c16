package netutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDomainName(t *testing.T) {
	assert.NoError(t, ValidateDomainName("example.com"))
	assert.NoError(t, ValidateDomainName("arweave.net"))

	assert.Error(t, ValidateDomainName(""))
	assert.Error(t, ValidateDomainName(strings.Repeat("a", 254)))
}

func TestValidateHttpUrl_Scheme(t *testing.T) {
	// Scheme checks fail before any lookup is attempted
	assert.Error(t, ValidateHttpUrl("ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", false, false))
	assert.Error(t, ValidateHttpUrl("http://example.com/1.json", true, false))
	assert.Error(t, ValidateHttpUrl("https:///1.json", false, false))
}

func TestValidateHttpUrl_FetchContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Artifact #1"}`))
	}))
	defer server.Close()

	assert.NoError(t, ValidateHttpUrl(server.URL+"/1.json", false, true))
	assert.NoError(t, ValidateHttpUrl(strings.TrimPrefix(server.URL, "http://")+"/1.json", false, true))

	err := ValidateHttpUrl(server.URL+"/2.json", false, true)
	assert.EqualError(t, err, "404 status code fetching content")
}
