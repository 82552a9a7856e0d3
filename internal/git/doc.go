// Package git provides the hosting-repository plumbing for publishing:
// clone-or-open of the hosting checkout, remote fetches, and authentication
// handling (SSH, token, basic).
//
// The package deliberately stays below branch semantics. Deciding which
// branch to check out, when to create an orphan branch, and what to commit
// belongs to the publish package; this one only hands it an open repository
// with a configured remote.
package git
