package envvar

const (
	// CampusEnv is the environment variable used to determine the environment
	CampusEnv = "CAMPUS_ENV"

	// CampusModelsPath overrides the directory where downloaded models are cached
	CampusModelsPath = "CAMPUS_MODELS_PATH"

	// CampusRedisAddr overrides the address of the answer cache
	CampusRedisAddr = "CAMPUS_REDIS_ADDR"

	// DatabaseURL overrides the relational database connection string
	DatabaseURL = "DATABASE_URL"

	// GoogleAPIKey enables the Gemini and Google Translate integrations
	GoogleAPIKey = "GOOGLE_API_KEY"
)
