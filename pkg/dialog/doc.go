// Package dialog implements the conversational engine core: a registry of
// named dialogs (waterfalls and prompts), and a runner that executes them
// against a per-conversation frame stack. Steps run one per turn-resumption;
// a step either advances, suspends on a prompt, pushes a child dialog, or
// ends the active dialog and resumes its parent.
package dialog
