/*
Package tagger drives one engine session and matches its output to submitted tokens.

A Process call runs two goroutines: a writer pushing the batch and the sentinel
into the engine, and a reader parsing engine output and dispatching records to
the handler. Running them concurrently keeps the engine from stalling once either
pipe buffer fills. The call returns when the reader has seen the sentinel echo
or when either side fails; every failure shuts the engine down.

	t := tagger.New(tagger.WithHandler(h))
	if err := t.SetModel("english.par:iso8859-1"); err != nil {
		return err
	}
	defer t.Shutdown(context.Background())
	err := t.Process(ctx, []string{"This", "is", "a", "test", "."})
*/
package tagger
