package pricing

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

// defaultOfficialDomains maps normalized service keys to trusted domain
// suffixes. Services without an entry fall back to the name-containment
// heuristic in FilterOfficial.
var defaultOfficialDomains = map[string][]string{
	"netflix":          {"netflix.com"},
	"spotify":          {"spotify.com"},
	"exxen":            {"exxen.com"},
	"disneyplus":       {"disneyplus.com", "disneyplus.com.tr"},
	"amazonprimevideo": {"primevideo.com", "amazon.com"},
}

var keyStripPattern = regexp.MustCompile(`\s+|\+`)

// NormalizeServiceKey lowercases a service display name and strips whitespace
// and plus signs, so "Disney+" and "disney plus" share a registry key.
func NormalizeServiceKey(name string) string {
	return strings.ToLower(keyStripPattern.ReplaceAllString(name, ""))
}

// Registry is the read-only official-domain registry. It is built once at
// startup and safe for concurrent reads.
type Registry struct {
	domains map[string][]string
}

// DefaultRegistry returns a registry seeded with the built-in domain list.
func DefaultRegistry() *Registry {
	return &Registry{domains: defaultOfficialDomains}
}

// registryFile is the YAML shape of an external registry override.
type registryFile struct {
	Domains map[string][]string `yaml:"domains"`
}

// LoadRegistry reads a YAML registry file. Entries are merged over the
// built-in defaults; keys are normalized on load.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var rf registryFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}

	merged := make(map[string][]string, len(defaultOfficialDomains)+len(rf.Domains))
	for k, v := range defaultOfficialDomains {
		merged[k] = v
	}
	for k, v := range rf.Domains {
		merged[NormalizeServiceKey(k)] = v
	}
	return &Registry{domains: merged}, nil
}

// Domains returns the registered suffixes for a normalized service key,
// or nil when the service is unregistered.
func (r *Registry) Domains(key string) []string {
	return r.domains[key]
}

// FilterOfficial narrows raw search results to those from domains trusted
// for the service. With a registered domain set, a result survives when its
// URL or display domain contains any suffix. Unregistered services fall back
// to a name-containment check: the key appears anywhere in the domain, or
// the domain starts with "{key}.".
func (r *Registry) FilterOfficial(results []model.SearchResult, serviceKey string) []model.SearchResult {
	registered := r.Domains(serviceKey)

	var filtered []model.SearchResult
	for _, res := range results {
		link := strings.ToLower(res.URL)
		displayLink := strings.ToLower(res.DisplayDomain)

		if len(registered) > 0 {
			for _, d := range registered {
				if strings.Contains(link, d) || strings.Contains(displayLink, d) {
					filtered = append(filtered, res)
					break
				}
			}
			continue
		}

		if serviceKey == "" {
			continue
		}
		if strings.Contains(link, serviceKey) ||
			strings.Contains(displayLink, serviceKey) ||
			strings.HasPrefix(link, serviceKey+".") ||
			strings.HasPrefix(displayLink, serviceKey+".") {
			filtered = append(filtered, res)
		}
	}
	return filtered
}
