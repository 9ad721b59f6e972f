// Package flows contains the request-scoped orchestration logic for
// registration, login, logout, session issuance, and refresh rotation.
// Each flow receives its dependencies as a struct of narrow interfaces and
// functions, performs one linear unit of work, and reports failures as a
// flow-local failure kind that the root package maps to public sentinel
// errors. Flows never import the root package.
package flows
