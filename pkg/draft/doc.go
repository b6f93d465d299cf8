/*
Package draft serializes access to in-progress survey drafts.

Every save of a given draft runs under Manager.WithLock, so overlapping saves of
the same draft (a double click, two tabs, two replicas) execute one after the other.
Locks are reference counted and dropped once no caller holds them.
*/
package draft
