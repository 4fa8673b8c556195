// Procedures for diffing configuration snapshots. These operate on
// in-memory records (see package record); to diff files, decode them
// into snapshots first. Nothing here mutates its inputs, so every
// function is safe to call concurrently on shared snapshots.
package diff
