// Package vcs drives external version-control tools (cvs, svn and git)
// behind one operation set.
//
// A Backend knows how to recognize its working copies, build argument
// vectors and parse the tool's status and log output. A Runner partitions
// input paths into per-directory groups and spawns the tool, and a Service
// ties both together into batch operations that report per-path failures
// through a BatchError instead of aborting the batch.
package vcs
