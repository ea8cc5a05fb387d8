package sop

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize strips scripts, event handlers and unsafe URLs from SOP content
// while keeping ordinary formatting.
func Sanitize(content string) string {
	if content == "" {
		return ""
	}
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
	})
	return policy.Sanitize(content)
}
