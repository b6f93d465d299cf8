/*
Package ports defines the driven ports (interfaces) for fieldwork.

These interfaces decouple the save pipeline from concrete backends, so the same
orchestration runs against an in-memory store in tests, Redis for shared
offline drafts, or Postgres in production.

# Key Interfaces

  - RecordStore: generic table-name record store (insert, upsert, select, delete).
  - Transactional: optional extension running several RecordStore calls atomically.
  - DraftStore: persists in-progress drafts between authoring sessions.
  - DistributedLocker: serializes saves of one draft across replicas.
*/
package ports
