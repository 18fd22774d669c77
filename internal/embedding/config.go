package embedding

// Config selects the embedding backend and the input budget.
type Config struct {
	Provider string `env:"EMBEDDING_PROVIDER"  envDefault:"openai"`
	MaxChars int    `env:"EMBEDDING_MAX_CHARS" envDefault:"286"`
}
