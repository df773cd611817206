// Package attr holds the attribute cache of a single contact.
//
// The package has two halves:
//   - a static, read-only table translating between [Kind], API names,
//     long names, scopes and the versioning requirement of each kind;
//   - [Store], the per-contact cache of values and version tokens with a
//     validity bit per entry and a set of pending (locally changed) keys.
//
// Lookups on unknown kinds or names return sentinel errors rather than
// panicking, so newer attributes coming from the server degrade gracefully.
package attr
