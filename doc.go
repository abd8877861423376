// Package crmauth provides authentication primitives (JWT issuance, stateful
// repositories, HTTP helpers) plus the team role cascade that keeps sales
// team assignments consistent with user lifecycle changes.
//
// User lifecycle:
//   - Users carry a UserStatus field that is persisted via Bun. Statuses cover
//     active and inactive so the cascade has a single deactivation trigger.
//   - UserStateMachine centralizes the transition graph, hooks, and
//     persistence. Invoke Transition with ActorRef metadata whenever an admin
//     moves an account.
//
// Role cascade:
//   - CascadeEngine reacts to a user becoming inactive. Managed teams are
//     reassigned to the first available Admin, led teams lose their lead, and
//     memberships are pruned. Each team is handled independently so one
//     failure never blocks the rest.
//
// Presence notifications:
//   - PresenceNotifier is a light-weight emitter used by Auther and the state
//     machine to describe login, logout, and status events. Notifiers run
//     best-effort (errors are logged) so you can forward to a websocket
//     channel or queue without blocking authentication.
//
// Claims decoration:
//   - ClaimsDecorator is invoked before JWTs are signed. Decorators may enrich
//     metadata while protected claims (sub, iss, uid, email, role, exp)
//     remain immutable.
package crmauth
