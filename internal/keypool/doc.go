// Package keypool manages the ordered pool of API keys used for remote
// submission. Keys load from a plain text file (one key per line, comments
// allowed). A key that completes a job rotates to the tail of the pool; a key
// whose credit is exhausted is evicted from both the pool and the file.
package keypool
