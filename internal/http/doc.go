// Package http provides the JSON REST transport of the facility planner.
//
// The router mounts every endpoint under /api:
//   - GET /health: pings the backing store.
//   - GET|POST /locations, GET|PUT|DELETE /locations/{id}; the same shape for
//     /activities and /staff. GET /staff?eligible=true&sector=X returns the
//     suggestion roster of a sector in allocator order.
//   - GET|POST /locations/{id}/templates, DELETE /templates/{id} and
//     POST /templates/{id}/project {"horizon_days"} manage recurring tasks.
//   - GET /occurrences?location_id&template_id&from&to&pending lists dated
//     occurrences with their estimated duration; POST /occurrences/{id}/execute
//     records execution and returns the follow-up occurrence, and
//     PUT /occurrences/{id}/operator {"operator_id"} assigns an operator.
//   - GET|PUT /governance/parameters and POST /governance/parameters/reset.
//   - GET|PUT /governance/weeks/{week}/plan where {week} is the Monday as
//     YYYY-MM-DD; the response carries the calculated daily demand.
//   - GET /governance/weeks/{week}/schedule, POST .../schedule/suggest
//     {"sector","overwrite"} and PUT .../schedule/shifts
//     {"staff_id","date","start_time","end_time"}.
//   - GET|POST /governance/weeks/{week}/convocations, GET .../sendable and
//     GET .../summary; POST /convocations/{id}/accept and
//     POST /convocations/{id}/reject {"reason"}.
//
// Errors are returned as {"error_code","message","errors"} where errors maps
// JSON field names to messages. Request DTOs live alongside their handlers.
package http
