package upload

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate checks every input against the limits and partitions the batch.
// A rejected input never blocks the rest of the batch, and each rejection
// carries all reasons that apply, not just the first.
func Validate(inputs []MediaInput, limits Limits) ValidationResult {
	result := ValidationResult{}
	for _, input := range inputs {
		reasons := validateOne(input, limits)
		if len(reasons) > 0 {
			result.Rejected = append(result.Rejected, Rejection{Input: input, Reasons: reasons})
			continue
		}
		result.Accepted = append(result.Accepted, input)
	}
	return result
}

// Check runs the gate on a single input and returns every reason that
// applies. Callers holding a positional batch use this to keep verdicts
// paired with their part even when names collide.
func Check(input MediaInput, limits Limits) []string {
	return validateOne(input, limits)
}

func validateOne(input MediaInput, limits Limits) []string {
	var reasons []string

	switch input.Origin {
	case OriginURL:
		if reason := validateURL(input.URL); reason != "" {
			reasons = append(reasons, reason)
		}
		// Size and extension of a remote source are unknown until fetch;
		// the transfer agent enforces the byte cap while streaming.
		return reasons
	case OriginFile:
	default:
		return []string{fmt.Sprintf("unknown input origin %q", input.Origin)}
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		reasons = append(reasons, "file name is empty")
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !extensionAccepted(ext, limits.Extensions) {
		if ext == "" {
			reasons = append(reasons, "file has no extension")
		} else {
			reasons = append(reasons, fmt.Sprintf("unsupported format %s, accepted: %s", ext, strings.Join(limits.Extensions, ", ")))
		}
	}

	if input.Size <= 0 {
		reasons = append(reasons, "file is empty")
	} else if limits.MaxBytes > 0 && input.Size > limits.MaxBytes {
		reasons = append(reasons, fmt.Sprintf("file exceeds the %dMB size limit", limits.MaxBytes/(1024*1024)))
	}

	return reasons
}

func validateURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "url is empty"
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "url is not valid"
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "url must use http or https"
	}
	if parsed.Host == "" {
		return "url has no host"
	}
	return ""
}

func extensionAccepted(ext string, accepted []string) bool {
	for _, a := range accepted {
		if ext == a {
			return true
		}
	}
	return false
}
