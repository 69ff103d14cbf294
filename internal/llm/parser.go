package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidewater/inboxpilot/internal/common"
)

var fencedBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// extractDecision recovers a rawDecision from backend output using staged
// fallbacks: direct parse, then fenced-block extraction, then the
// outermost brace-delimited substring. Every stage is total; if all fail
// the error wraps common.ErrMalformedOutput.
func extractDecision(content string) (rawDecision, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return rawDecision{}, fmt.Errorf("%w: empty response", common.ErrMalformedOutput)
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(content), &raw); err == nil {
		return raw, nil
	}

	if m := fencedBlockRe.FindStringSubmatch(content); len(m) == 2 {
		if err := json.Unmarshal([]byte(m[1]), &raw); err == nil {
			return raw, nil
		}
	}

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first != -1 && last > first {
		if err := json.Unmarshal([]byte(content[first:last+1]), &raw); err == nil {
			return raw, nil
		}
	}

	return rawDecision{}, fmt.Errorf("%w: no JSON object found in response", common.ErrMalformedOutput)
}
