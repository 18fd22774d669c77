package openai

// Config contains the hosted OpenAI embedding backend settings.
// Dimensions is sent to models that accept a reduced output size.
type Config struct {
	APIKey     string `env:"OPENAI_API_KEY"`
	BaseURL    string `env:"OPENAI_BASE_URL"`
	Model      string `env:"OPENAI_EMBEDDING_MODEL"      envDefault:"text-embedding-3-small"`
	Dimensions int    `env:"OPENAI_EMBEDDING_DIMENSIONS" envDefault:"768"`
}
