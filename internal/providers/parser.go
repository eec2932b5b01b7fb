package providers

import (
	"fmt"
	"strings"
)

// ProviderRef is one entry of SMARTCLAIM_LLM_PROVIDERS, "name" or
// "name:KEY_ENV", in fallback order.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList splits a "|" or "," separated provider list. Names are
// lowercased and repeated entries keep their first position. An empty list
// means the offline mock.
func ParseProviderList(raw string) ([]ProviderRef, error) {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' })
	out := make([]ProviderRef, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p, Name: p}
		if name, alias, ok := strings.Cut(p, ":"); ok {
			ref.Name = strings.TrimSpace(name)
			ref.KeyAlias = strings.TrimSpace(alias)
			if ref.KeyAlias == "" || strings.ContainsAny(ref.KeyAlias, ": \t") {
				return nil, fmt.Errorf("provider %q: invalid key alias", p)
			}
		}
		ref.Name = strings.ToLower(ref.Name)
		if ref.Name == "" || strings.ContainsAny(ref.Name, " \t") {
			return nil, fmt.Errorf("provider %q: invalid name", p)
		}
		key := ref.Name + ":" + ref.KeyAlias
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out, nil
}
