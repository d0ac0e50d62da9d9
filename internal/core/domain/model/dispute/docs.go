// Package dispute provides the Dispute aggregate and its site-visit workflow.
//
// A dispute freezes settlement of its order until an operator resolves it:
//
//	opened -> investigating -> escalated (optional) -> resolved
//
// Orders totalling at or above the site-visit threshold, or flagged by an operator,
// need a completed physical inspection before an ordinary resolve succeeds. The
// administrative ForceResolve bypasses that check and must carry a justification.
// Resolved disputes never reopen.
package dispute
