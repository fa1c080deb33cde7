// Package translation translates free text into a target language using
// a hosted chat model (OpenAI or Gemini). Long documents are split into
// chunks on paragraph boundaries and translated in order, and results are
// memoized per process.
package translation
