// Package ffprobe reads video frame dimensions and display rotation by
// running ffprobe.
//
// ffprobe must be installed and available in the system PATH. Output is
// parsed from its JSON writer; both the legacy "rotate" stream tag and the
// display matrix side data are understood.
package ffprobe
