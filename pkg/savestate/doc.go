// Package savestate tracks the per-section save status of a draft and derives
// the draft-wide status shown to the author.
package savestate
