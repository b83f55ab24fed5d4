/*
Package rsync is the transfer driver: it compiles filter rule sets for both
sides of a sync, writes them as rule-file artifacts, and invokes the external
rsync binary with a fixed option bundle. In list-filtered mode it predicts
rsync's behavior locally with the decision evaluator instead of running it.

	 ignore files + config + flags
	            |
	            v
	     +-------------+     artifacts      +-----------+
	     |   Driver    | -----------------> |  rsync    |
	     | (rule sets) |   --filter ". f"   | (extern)  |
	     +------+------+                    +-----+-----+
	            |                                 |
	            | local walk                      | itemized output
	            v                                 v
	     Excluded by filters              Added/Updated/Deleted

The driver owns every artifact it writes and removes them on all exit paths.
Diagnostic outputs (JSON command dump, markdown report) are best effort and
never fail a transfer.
*/
package rsync
