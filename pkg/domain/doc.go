// Package domain holds the core value types of the dialog engine:
// activities, principals and their state bags, intents, and the dialog
// stack. It has no dependencies on adapters or the runtime and defines the
// sentinel errors shared across the module.
package domain
