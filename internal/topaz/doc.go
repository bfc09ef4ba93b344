// Package topaz implements the HTTP client for the Topaz Labs video
// enhancement API: request creation, multipart source upload, status
// polling, and result download.
package topaz
