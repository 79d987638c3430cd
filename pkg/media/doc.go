// Package media turns the two raw recordings into the published artifacts
// by driving ffmpeg.
//
// A Plan is an ordered list of phases. Stages inside a phase are
// independent and run concurrently; phases run strictly in order because
// each consumes the previous phase's outputs:
//
//	transcode base    ─┐
//	                   ├─> compose ─> [palette ─> gif] ─> thumbnail
//	transcode preview ─┘
//
// Every stage writes to a ".partial" sibling of its output and renames it
// into place only after ffmpeg exits successfully, so an aborted pipeline
// never leaves a file that looks like a finished artifact.
package media
