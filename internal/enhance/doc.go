// Package enhance holds the pure decision functions of the pipeline: the
// model/sharpen rule table and the broadcast frame-rate normalizer. Nothing
// here touches the network, subprocesses, or the filesystem.
package enhance
