package crawler

import (
	"fmt"

	"sjsage522/shiftcodeworker/logger"
	perrors "sjsage522/shiftcodeworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// Extract finds the codes in doc. The targeted scan runs first when the class
// hint is enabled; the fallback scan takes over when it matched no element or
// produced no valid code. Codes in the expired section are dropped unless
// cfg.IncludeExpired is set.
func Extract(doc *goquery.Document, cfg ExtractConfig) *Result {
	log := logger.ForExtractor()
	idx := newDocIndex(doc)
	result := &Result{}

	var candidates []Candidate
	var inRegion func(*Region, int) bool

	if cfg.UseClassHint {
		candidates, result.MatchedElements = targetedScan(idx, cfg.Selectors)
		result.Strategy = StrategyTargeted
		inRegion = (*Region).ContainsNode

		switch {
		case result.MatchedElements == 0:
			result.Warnings = append(result.Warnings, perrors.NewParseWarning("extractor",
				fmt.Sprintf("no elements matched selector %s; falling back to page-wide scan", selectorString(cfg.Selectors))))
		case len(candidates) == 0:
			result.Warnings = append(result.Warnings, perrors.NewParseWarning("extractor",
				fmt.Sprintf("%d element(s) matched selector %s but held no valid code; falling back to page-wide scan",
					result.MatchedElements, selectorString(cfg.Selectors))))
		}
		log.Debug().
			Str("selector", selectorString(cfg.Selectors)).
			Int("matched", result.MatchedElements).
			Int("candidates", len(candidates)).
			Msg("Targeted scan finished")
	}

	if len(candidates) == 0 {
		candidates = fallbackScan(idx)
		result.Strategy = StrategyFallback
		result.FallbackUsed = cfg.UseClassHint
		inRegion = (*Region).ContainsOffset
		log.Debug().Int("candidates", len(candidates)).Msg("Fallback scan finished")
	}

	var region *Region
	if !cfg.IncludeExpired {
		region = findExpiredRegion(idx, cfg.ExpiredHeading, cfg.ExpiredBoundary)
		result.ExpiredFound = region != nil
		if region == nil {
			log.Debug().Str("heading", cfg.ExpiredHeading).Msg("No expired section found")
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	var expired []string
	for _, c := range candidates {
		if region != nil && inRegion(region, c.Pos) {
			expired = append(expired, c.Code)
			continue
		}
		if _, ok := seen[c.Code]; ok {
			continue
		}
		seen[c.Code] = struct{}{}
		result.Codes = append(result.Codes, c.Code)
	}

	// A code listed both inside and outside the section is kept
	for _, code := range expired {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		result.ExpiredExcluded = append(result.ExpiredExcluded, code)
	}

	result.Expirations = extractExpirations(idx, cfg.ActiveHeading)
	if len(result.Expirations) > 0 {
		log.Debug().Int("codes", len(result.Expirations)).Msg("Read expirations from active table")
	}

	return result
}
