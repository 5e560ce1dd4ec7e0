// Package deps reports whether the external binaries chela invokes are
// installed.
package deps
