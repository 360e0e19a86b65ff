/*
Package protocol implements the engine line protocol.

Input: one token per line, followed by the Sentinel after every batch.
Output: one primary line per token,

	token<TAB>tag<TAB>lemma

followed in probability mode by zero or more continuation lines, which carry an
empty token field:

	<TAB>tag<TAB>lemma<TAB>probability

The engine echoes the Sentinel unchanged on a line of its own. Seeing that echo
means every record of the batch has been emitted.
*/
package protocol
