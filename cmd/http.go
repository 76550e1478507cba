package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

const httpTimeout = 30 * time.Second

// httpClient returns a client honouring the global --proxy flag, or nil when
// no proxy is set so callers fall back to their own defaults.
func httpClient(cmd *cobra.Command) (*http.Client, error) {
	proxy, _ := cmd.Root().PersistentFlags().GetString("proxy")
	if proxy == "" {
		return nil, nil
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %v", err)
	}
	return &http.Client{
		Timeout: httpTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
	}, nil
}
