// Command chela is the CLI for the chela preview daemon.
//
// "chela serve" runs the daemon in the foreground. The open and status
// commands talk to a running daemon over its HTTP API; list and config work
// locally.
package main
