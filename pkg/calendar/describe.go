package calendar

import "fmt"

// describe synthesizes the human-readable recurrence description from a
// rule, e.g. "weekly, starting from Feb 3, 2020, until Feb 17, 2020".
func (c *Calendar) describe(rule ruleSpec) string {
	return fmt.Sprintf("%s, starting from %s, until %s",
		frequencyAdverbs[rule.freq],
		rule.anchor.Format(c.opts.HumanReadableFormat),
		rule.until.Format(c.opts.HumanReadableFormat),
	)
}
