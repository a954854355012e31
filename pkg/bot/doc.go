// Package bot contains the turn dispatcher: the single entry point a host
// calls per inbound activity. The dispatcher owns the per-turn control flow
// (welcome handling, cancellation, stack continuation, intent-routed dialog
// dispatch) and persists the conversation's dialog stack once, at the end
// of a successful turn.
package bot
