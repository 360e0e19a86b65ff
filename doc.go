/*
Package treetagger drives the TreeTagger part-of-speech tagger as a long-running child process.

The engine is started once per model and kept alive across batches. Every batch is
written to the engine's standard input, one token per line, followed by a sentinel
token; the engine echoes the sentinel back, which marks the end of the batch on its
standard output. Writing and reading run concurrently, so batches of any size
complete without deadlocking on full pipes.

# Concept

A model is named by a spec: the path to a parameter file, optionally followed by a
colon and the encoding the model was trained with ("english.par:iso8859-1"). Tokens
are encoded with that charset on the way in and decoded on the way out.

Results are delivered to a Handler, one primary record (token, tag, lemma) per input
token and in input order. In probability mode a ProbabilityHandler additionally
receives the candidate analyses of each token.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/treetagger"
	)

	func main() {
		w, err := treetagger.New(treetagger.WithModel("/opt/treetagger/lib/english.par:iso8859-1"))
		if err != nil {
			log.Fatal(err)
		}
		defer w.Destroy(context.Background())

		results, err := w.Tag(context.Background(), []string{"This", "is", "a", "test", "."})
		if err != nil {
			log.Fatal(err)
		}
		for _, r := range results {
			fmt.Println(r.Token, r.Tag, r.Lemma)
		}
	}

# Packages

  - pkg/model: model specs and encodings.
  - pkg/protocol: line codec, pending queue and output parser.
  - pkg/adapters/process: child process supervision.
  - pkg/tagger: the batch driver.
  - pkg/adapters/http: an HTTP service around a Wrapper.
*/
package treetagger
