// Package models lists the OpenAI models available to the configured API
// key, grouped by the pipeline stage that can use them.
package models
