/*
Package ports defines the driven ports (interfaces) around the tagger core.

These interfaces decouple the facade, the CLI and the HTTP service from concrete
caches and tokenizers.

# Key Interfaces

  - ResultCache: stores assembled batch results keyed by model, mode and tokens.
  - Tokenizer: splits raw text into the word forms submitted to the engine.
*/
package ports
