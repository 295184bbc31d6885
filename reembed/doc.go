// Package reembed regenerates cached embedding vectors with a new or updated
// embedding model.
//
// Texts cached under a source model are read back from the vector store,
// embedded in batches by an ai.EmbeddingService, normalized to unit length
// and written under the target model. Embedding calls are retried with
// exponential backoff, and progress is reported to an io.Writer.
package reembed
