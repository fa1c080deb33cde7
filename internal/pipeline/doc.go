// Package pipeline runs the three processing flows: story video
// generation, PDF translation and video dubbing. Each flow is a fixed
// sequence of stages where one stage's output file is the next stage's
// input. Every run works inside its own job directory.
package pipeline
