// Package secrets redacts credentials from user text before it is persisted,
// using the gitleaks default rule set plus an optional project allowlist.
package secrets
