// Package core provides the workspace logic behind the Data Sweeper.
//
// It is independent of any transport: web handlers, the JSON API and tests
// all drive the same Service.
//
// # Architecture
//
//   - Store: in-memory sessions keyed by a UUID, expired after SESSION_TTL
//     by a background janitor.
//   - Session: the ordered files one visitor has uploaded, plus pending
//     notices for the next page render. Every operation on a session holds
//     its mutex, so a dedupe and a fill on the same file never interleave.
//   - Service: upload, cleaning, column selection, charting and export on a
//     (session, file) pair.
//   - UploadLimiter: bounds how many upload requests parse at once.
//
// # Upload
//
// [Service.Upload] parses every file of a request concurrently (bounded by
// an errgroup limit) and adds the results to the session in request
// order. A file with an unsupported extension or unreadable content becomes
// a [Rejection] carrying a user-facing message; the other files proceed.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code for support reference:
//
//   - FILE001-FILE007: upload and parse errors
//   - DS001-DS006: dataset and workspace errors
//   - UPL002-UPL005: busy, cancelled and timed-out requests
//   - RATE001: rate limiting
//
// # Activity
//
// Each upload and mutation is passed to an activity.Recorder with row and
// column counts before and after. Recorder failures are logged, never
// returned to the caller.
package core
