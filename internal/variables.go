package internal

import "maps"

// templateVariables resolves the configured default variables against src
// and merges vars over them. A default whose settings path does not resolve
// is present with a nil value.
func (c Config) templateVariables(src ConfigurationSource, vars map[string]any) map[string]any {
	out := make(map[string]any, len(c.DefaultTemplateVariables)+len(vars))

	for name, settingsPath := range c.DefaultTemplateVariables {
		var value any
		if src != nil {
			if v, ok := src.Get(settingsPath); ok {
				value = v
			}
		}
		out[name] = value
	}

	maps.Copy(out, vars)
	return out
}
