package netutil

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/retry"
	"github.com/code-payments/code-nft-issuer/pkg/retry/backoff"
)

var fetchClient = &http.Client{Timeout: 10 * time.Second}

// ValidateHttpUrl checks that value is an http(s) URL with a valid host. A
// value without a scheme is treated as http. With fetchContent the URL must
// serve a 200, otherwise its hostname must resolve.
func ValidateHttpUrl(value string, requireSecureConnection, fetchContent bool) error {
	if !strings.Contains(value, "://") {
		value = "http://" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return err
	}

	switch {
	case parsed.Scheme != "http" && parsed.Scheme != "https":
		return errors.New("url scheme must be http or https")
	case requireSecureConnection && parsed.Scheme != "https":
		return errors.New("url scheme must be https")
	case len(parsed.Hostname()) == 0:
		return errors.New("host component missing")
	}

	if net.ParseIP(parsed.Hostname()) == nil {
		if err := ValidateDomainName(parsed.Hostname()); err != nil {
			return errors.Wrap(err, "host is not a valid domain name")
		}
	}

	if !fetchContent {
		if _, err := net.LookupIP(parsed.Hostname()); err != nil {
			return errors.Wrap(err, "error resolving hostname")
		}
		return nil
	}

	return fetch(parsed.String())
}

// fetch GETs value, retrying transport failures briefly. Non-200 responses are
// not retried.
func fetch(value string) error {
	var status int
	_, err := retry.Retry(
		func() error {
			resp, err := fetchClient.Get(value)
			if err != nil {
				return err
			}
			resp.Body.Close()
			status = resp.StatusCode
			return nil
		},
		retry.Limit(5),
		retry.Backoff(backoff.BinaryExponential(100*time.Millisecond), time.Second),
	)
	if err != nil {
		return errors.Wrap(err, "error fetching content")
	}
	if status != http.StatusOK {
		return errors.Errorf("%d status code fetching content", status)
	}
	return nil
}
