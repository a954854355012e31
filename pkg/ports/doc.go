// Package ports defines the interfaces between the dialog engine and its
// collaborators (state persistence, messaging transport, intent
// classification, distributed locking), following a ports-and-adapters
// layout. Adapters live under pkg/adapters.
package ports
