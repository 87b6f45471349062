package render

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	trustedPolicyOnce sync.Once
	trustedPolicy     *bluemonday.Policy
)

// DefaultPolicy is applied to {{{...}}} and html-safe output unless the
// renderer is configured with WithPolicy. It keeps user-generated-content
// markup and the attributes component output commonly relies on.
func DefaultPolicy() *bluemonday.Policy {
	trustedPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class", "id", "title", "role").Globally()
		policy.AllowDataAttributes()
		policy.AllowElements("section", "article", "header", "footer", "nav", "aside", "main")
		trustedPolicy = policy
	})
	return trustedPolicy
}

func sanitizeMarkup(policy *bluemonday.Policy, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return policy.Sanitize(raw)
}
