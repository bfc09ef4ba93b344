// Package pipeline drives videos through the enhancement workflow: probe,
// validate, submit to the remote API with key failover, poll, download, and
// run the duration correction pass. Items are processed one at a time in
// queue order.
package pipeline
