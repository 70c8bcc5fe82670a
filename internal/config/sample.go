package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# docvec configuration
version: "1.0"

embedding:
  # hash runs offline and ranks by shared words and word fragments only.
  # ollama and openai call a model server and rank by meaning.
  provider: hash
  # model: nomic-embed-text
  # endpoint: http://localhost:11434
  # api_key: ""            # openai only, OPENAI_API_KEY is used when empty
  # dimension: 0           # 0 uses the model's known size (hash: 384)
  timeout: 30s
  max_retries: 3
  requests_per_minute: 0   # 0 disables client-side rate limiting

index:
  # memory keeps documents for the life of the process only
  backend: sqlite
  path: ~/.cache/docvec/documents.db
  metric: cosine           # cosine | l2 | ip
  max_entries: 0           # memory backend only, 0 is unbounded

query:
  top_k: 5
  min_score: 0             # 0 disables the relevance cutoff
  category_key: categoria  # metadata key set by --category

import:
  workers: 4
  debounce: 500ms

output:
  default_format: text     # text | json | markdown | csv
  color_mode: auto         # auto | always | never
  emoji: true
  verbose: false
`
}

// MinimalSampleConfig returns a configuration with only the essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"
embedding:
  provider: hash
index:
  backend: sqlite
  path: ~/.cache/docvec/documents.db
output:
  default_format: text
`
}
