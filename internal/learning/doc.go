// Package learning turns user feedback into stored records and learned
// patterns.
//
// A prompt flows through a fixed pipeline:
//
//	Classify -> IsLearnable -> Categorize -> counter increment -> dedup check
//	  -> AppendFeedback -> (threshold) UpsertPattern -> notice
//
// Classification, learnability and categorization are pure functions over
// ordered regex tables. Dedup state and pattern counters live in a small JSON
// cache that is loaded, pruned and saved once per invocation; each hook runs
// as its own short-lived process, so nothing is held in memory between runs.
//
// Persistence goes through the Store interface. Store failures are logged and
// never propagate past Pipeline.Process.
package learning
