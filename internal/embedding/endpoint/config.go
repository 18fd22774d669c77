package endpoint

// Config contains the settings of a self-hosted OpenAI-compatible embedding
// endpoint (text-embeddings-inference, LocalAI, vLLM).
type Config struct {
	BaseURL   string `env:"ENDPOINT_BASE_URL"`
	APIKey    string `env:"ENDPOINT_API_KEY"`
	Model     string `env:"ENDPOINT_MODEL"     envDefault:"BAAI/bge-base-en-v1.5"`
	Dimension int    `env:"ENDPOINT_DIMENSION" envDefault:"768"`
	User      string `env:"ENDPOINT_USER"`
}
