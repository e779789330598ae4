package config

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// settingAliases maps alternative config file spellings to the mapstructure
// keys of Config and TracingConfig. Keys are compared lowercased with '-'
// replaced by '_'.
var settingAliases = map[string]string{
	"target":         "url",
	"total":          "requests",
	"total_requests": "requests",
	"max_workers":    "concurrency",
	"maxtokens":      "max_tokens",
	"apikey":         "api_key",
	"contentpath":    "content_path",
	"jsonoutput":     "json_output",
	"logerrors":      "log_errors",
	"metricsaddr":    "metrics_addr",
	"servicename":    "service_name",
	"samplerate":     "sample_rate",
	"nopropagate":    "no_propagate",
}

// applyConfigSettings decodes config file settings over cfg. Numbers, bools
// and lists are accepted in string form; keys absent from the file leave cfg
// untouched.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}
	defaults := *cfg

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(canonicalKeys(settings)); err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaults.Model
	}
	if strings.TrimSpace(cfg.ContentPath) == "" {
		cfg.ContentPath = defaults.ContentPath
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.MetricsAddr = strings.TrimSpace(cfg.MetricsAddr)
	cfg.Tracing.Endpoint = strings.TrimSpace(cfg.Tracing.Endpoint)
	cfg.Tracing.ServiceName = strings.TrimSpace(cfg.Tracing.ServiceName)
	cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(cfg.Tracing.Protocol))

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[http.CanonicalHeaderKey(strings.TrimSpace(k))] = v
	}
	cfg.Headers = headers
	return nil
}

// canonicalKeys rewrites setting keys to their mapstructure spelling,
// recursing into nested sections. Header names are kept as written. When a
// file carries both an alias and the canonical key, the canonical key wins.
func canonicalKeys(settings map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(settings))
	for key, val := range settings {
		k := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
		if canonical, ok := settingAliases[k]; ok {
			if _, dup := settings[canonical]; dup {
				continue
			}
			k = canonical
		}
		if nested, ok := val.(map[string]interface{}); ok && k != "headers" {
			val = canonicalKeys(nested)
		}
		out[k] = val
	}
	return out
}
