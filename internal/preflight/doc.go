// Package preflight provides readiness checks for the filesystem paths and
// external binaries chela depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failing check as a
//     warning; a failed check never prevents the server from starting.
//   - The CLI "chela status" command renders the same results as a table.
package preflight
