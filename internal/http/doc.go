// Package http provides HTTP handlers and middleware for the campus
// scheduling API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","principal"} with the token also
//     surfaced via the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the caller's own session token.
//     DELETE /sessions/{token}: principal-only revocation of another session.
//   - GET /users, POST /users, DELETE /users/{id}: staff account management.
//     Deleting disables the account; history is preserved.
//   - GET /resources, POST /resources, GET/PUT/DELETE /resources/{id}: the
//     bookable resource catalog. DELETE deactivates rather than removes.
//   - GET /timetable, POST /timetable, DELETE /timetable/{id}: standing
//     weekly class sessions. GET /timetable/check answers slot availability
//     with confirmed conflicts and pending warnings reported separately, and
//     GET /timetable/occurrences projects weekly entries onto concrete dates
//     between inclusive `from` and `to` bounds.
//   - GET /bookings, POST /bookings, GET /bookings/{id}, and
//     POST /bookings/{id}/approve|reject|cancel: the ad-hoc booking workflow.
//     Creation runs the cross-department policy gate; conflict responses
//     carry the blocking occupants.
//   - POST /routine/generate: builds a weekly routine for a department,
//     optionally committing the placements as timetable entries.
//
// Booking and timetable payloads accept both the canonical `resource_id` key
// and the legacy `classroom_id` alias.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
