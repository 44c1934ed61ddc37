// Package notify implements the sighting notification engine: rules are
// evaluated against every accepted sighting report, and firing rules deliver
// webhooks to Slack, Discord, or generic HTTP targets. Re-fires for the same
// rule and identity are suppressed for the rule's cooldown.
package notify
