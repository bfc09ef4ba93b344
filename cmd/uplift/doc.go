// Command uplift manages the video enhancement queue and runs the
// processing pipeline.
package main
