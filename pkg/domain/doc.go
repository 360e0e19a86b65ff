/*
Package domain contains the core types shared by every layer of the tagger driver.

It defines the records the engine produces, the handler contract callers implement to
receive them, and the error taxonomy surfaced by a tagging session. This package is kept
pure and free of I/O, process or persistence concerns.

# Key Entities

  - PrimaryRecord: the mandatory (token, tag, lemma) result for one input token.
  - ProbabilityRecord: an additional (tag, lemma, probability) candidate, only in probability mode.
  - Handler / ProbabilityHandler: the dispatch surface invoked in input order.
  - TaggedToken: a fully assembled result, used by collecting handlers and caches.
*/
package domain
