/*
Package survey persists survey drafts section by section.

A Saver validates the whole draft, creates the survey record on the first save,
upserts the target section and replaces its questions. A Loader rebuilds a draft
from the record store. Both work against any ports.RecordStore.
*/
package survey
