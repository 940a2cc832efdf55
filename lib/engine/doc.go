// Package engine wires the tiers, the permission resolver and the
// background tasks into one explicitly constructed object with a defined
// lifecycle. All request handling goes through the engine: it checks
// namespace permissions, selects the tier from the caller's persistence
// flag (never inferring or migrating between tiers) and dispatches the
// operation. Construct with New, run background tasks with Start, tear
// down with Close.
package engine
