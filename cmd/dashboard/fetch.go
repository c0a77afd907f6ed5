package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cbmooners/dashboard/internal/api"
)

// FetchCmd fetches one logical endpoint.
type FetchCmd struct {
	Endpoint string `arg:"" help:"Endpoint name (see --list), or technical-analysis, news, social-sentiment with --symbol"`
	Symbol   string `help:"Symbol for per-symbol endpoints" short:"s"`
	List     bool   `help:"List endpoint names and exit"`
	Raw      bool   `help:"Print the body without indentation"`
}

func (c *FetchCmd) Run(cli *Context, ctx context.Context) error {
	client := cli.apiClient()
	ep := client.Endpoints()

	if c.List {
		for _, name := range ep.Names() {
			u, _ := ep.Lookup(name)
			fmt.Fprintf(cli.Out, "%-26s %s\n", name, u)
		}
		return nil
	}

	url, err := resolveEndpoint(ep, c.Endpoint, c.Symbol)
	if err != nil {
		return err
	}

	body, err := client.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", c.Endpoint, err)
	}

	if c.Raw {
		_, err = fmt.Fprintln(cli.Out, string(body))
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(cli.Out)
	return err
}

func resolveEndpoint(ep api.Endpoints, name, symbol string) (string, error) {
	perSymbol := map[string]func(string) string{
		"technical-analysis": ep.TechnicalAnalysis,
		"news":               ep.CryptoNews,
		"social-sentiment":   ep.SocialSentiment,
	}
	if fn, ok := perSymbol[name]; ok {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			return "", fmt.Errorf("%s requires --symbol", name)
		}
		return fn(symbol), nil
	}

	if u, ok := ep.Lookup(name); ok {
		return u, nil
	}
	return "", fmt.Errorf("unknown endpoint %q", name)
}
