package pricing

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/subtrack-labs/pricewatch/pkg/websearch"
)

// defaultLocale matches the original deployment market.
const defaultLocale = "tr-TR"

// localeInfo is what the formulator and the retrieval stage need from a
// BCP 47 tag: the base language, the region code, and the region's name
// written in that language ("Türkiye", "Deutschland", ...).
type localeInfo struct {
	Lang       string
	Region     string
	RegionName string
}

// parseLocale resolves a locale tag, falling back to the default on garbage
// input. A bad locale must not fail a pipeline run.
func parseLocale(locale string) localeInfo {
	if strings.TrimSpace(locale) == "" {
		locale = defaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(defaultLocale)
	}

	base, _ := tag.Base()
	region, _ := tag.Region()

	name := display.Regions(tag).Name(region)
	if name == "" {
		name = region.String()
	}

	return localeInfo{
		Lang:       base.String(),
		Region:     strings.ToLower(region.String()),
		RegionName: name,
	}
}

// buildQuery produces the search query for one (service, plan) pair.
// Pure and deterministic: the year comes from the caller's clock.
func buildQuery(serviceName, planName string, loc localeInfo, year int) string {
	if loc.Lang == "tr" {
		return fmt.Sprintf("%s %s %s aylık ücret fiyatı %d", serviceName, loc.RegionName, planName, year)
	}
	return fmt.Sprintf("%s %s %s monthly price %d", serviceName, loc.RegionName, planName, year)
}

// searchOptions maps the locale onto backend search parameters.
func searchOptions(loc localeInfo, maxResults int) websearch.SearchOptions {
	return websearch.SearchOptions{
		MaxResults:       maxResults,
		Region:           loc.Region,
		Language:         loc.Lang,
		LanguageRestrict: "lang_" + loc.Lang,
	}
}
