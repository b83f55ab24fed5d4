/*
Package filter compiles user patterns into ordered, signed transfer rules and
evaluates paths against them.

	 +-----------+        +----------+        +-----------+
	 | Patterns  | -----> | RuleSet  | -----> | Decision  |
	 | (!a, b/*) |compile | (+ / - ) | decide | inc/exc/  |
	 +-----------+        +----------+        | neutral   |
	                           |              +-----------+
	                           v
	                     filter artifact
	                     (rsync --filter)

🎯 Purpose:
- Parses gitignore-like patterns (leading '!', '/', trailing '/', '/**')
- Compiles them into rsync filter rules, with the ancestor-include chains a
  traversal-pruning tool needs
- Evaluates relative paths against rule sequences with last-match-wins
  precedence
- Serializes rule sets as filter-file artifacts and re-parses them

🔄 Flow:
1. Patterns arrive from ignore files, config, and the command line
2. Compile / CompileWhitelist produce an ordered RuleSet
3. WriteArtifact hands the rules to the external transfer tool
4. Decide predicts locally what the tool will do with each path

📝 Design Philosophy:
Pattern parsing, rule compilation, and decision evaluation are three pure
steps. Nothing here touches shared state, so the evaluator can be called
concurrently and cross-checked against the transfer tool's observed behavior
by the parity harness.
*/
package filter
