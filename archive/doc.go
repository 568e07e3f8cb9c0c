// Package archive builds tar archives of directory trees.
//
// Write streams the regular files below a directory of an fs.FS into a tar
// stream. Builder wraps Write with request-scoped scratch files: each build
// writes to its own uniquely named file in the scratch directory so the
// archive size is known before the response starts, and a weighted semaphore
// bounds how many builds run at once.
//
// Entry names are slash paths relative to the archived directory. Only
// regular files produce entries; directories are implied by the file names
// and symlinks are skipped, so a walk never follows a link out of the tree or
// into a cycle.
package archive
