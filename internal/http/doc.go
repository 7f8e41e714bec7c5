// Package http serves the planner over three surfaces sharing one chi router:
//
//   - JSON under /api/ and the token endpoints /auth/token, /auth/register and
//     /auth/me, authorized with a bearer token.
//   - Full HTML pages rendered from the embedded pongo2 templates, authorized
//     with the appointments_token cookie set by /auth/web-token.
//   - htmx fragments under /hx/, also cookie based. Errors on this surface are
//     answered with status 200, an error snippet and an HX-Trigger header.
//
// Guards are chi middleware built by Gate. A rejected request carries its
// *AuthError to the responder, which picks the representation from the path.
// Request and response DTOs live in dto.go.
package http
