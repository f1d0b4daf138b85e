package main

import (
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/autoinsurance/storefront/internal/content"
	"github.com/autoinsurance/storefront/internal/content/pipeline"
	"github.com/autoinsurance/storefront/pkg/types"
)

// Run executes the page command.
func (c *PageCmd) Run(deps *Dependencies) error {
	apiCfg := deps.Config.ContentAPI
	if c.Timeout > 0 {
		apiCfg.Timeout = types.Duration(c.Timeout)
	}

	base := content.ResolveBase(firstSet(c.API, apiCfg.BaseURL), "localhost", apiCfg.FallbackPort)
	client := content.NewClient(apiCfg, nil, deps.Logger)

	key := c.Slug
	if key == "" || key == "/" {
		key = pipeline.HomeKey
	}

	var (
		page types.Page
		menu types.FooterMenu
	)
	g, gctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error {
		if key == pipeline.HomeKey {
			page = client.FetchHomepage(gctx, base)
		} else {
			page = client.FetchPage(gctx, base, key)
		}
		return nil
	})
	g.Go(func() error {
		menu = client.FetchFooterMenu(gctx, base)
		return nil
	})
	_ = g.Wait()

	policy := deps.Config.Policy
	category := pipeline.Classify(key, menu, policy)
	result := pipeline.Build(pipeline.Input{
		Key:      key,
		Category: category,
		Sections: page.Sections,
		Meta:     page.Meta,
	}, policy)
	if !c.Stages {
		result.Stages = nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(deps.Stdout, string(out))
	return nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
