package constants

// Centralized constants for headers, env keys and OpenAI integration.
const (
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	DefaultServerAddress = ":8080"

	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	// HeaderPlayerID carries the authenticated player id set by the
	// upstream auth proxy.
	HeaderPlayerID = "X-Player-ID"

	ContentTypeJSON = "application/json"
	ContentTypePNG  = "image/png"

	CacheControlHeader    = "Cache-Control"
	CacheControlImmutable = "public, max-age=86400"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// OpenAI API endpoints and base URL
	OpenAIBaseURL               = "https://api.openai.com"
	OpenAIChatCompletionsPath   = "/v1/chat/completions"
	OpenAIImagesGenerationsPath = "/v1/images/generations"

	// OpenAI model names and typical parameters
	OpenAIChatModel           = "gpt-4o-mini"
	OpenAINarrationMaxTokens  = 900
	OpenAIImageModel          = "gpt-image-1"
	OpenAIImageSizeDefault    = "1024x1024"
	OpenAIImageQualityDefault = "low"
)

// Routes used by the backend router
const (
	RouteAPIPrefix     = "/api"
	RouteCards         = "/cards"
	RouteMyCards       = "/players/me/cards"
	RouteLeaderboard   = "/leaderboard"
	RouteVersion       = "/version"
	RouteMatches       = "/matches"
	RouteMatchByID     = "/matches/:matchID"
	RouteMatchJoin     = "/matches/:matchID/join"
	RouteMatchStart    = "/matches/:matchID/start"
	RouteMatchEnd      = "/matches/:matchID/end"
	RouteMatchPlace    = "/matches/:matchID/placements"
	RouteMatchRound    = "/matches/:matchID/rounds/:round"
	RouteMatchStream   = "/matches/:matchID/stream"
	RouteRoundArt      = "/assets/rounds/:matchID/:file"
	RouteCardArt       = "/assets/cards/:file"
	RoundArtURLFormat  = "/api/assets/rounds/%s/%d.png"
	ContextKeyPlayerID = "playerID"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyRound   = "round"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest         = "Invalid request"
	ErrInvalidMatchID         = "Invalid match ID"
	ErrInvalidRound           = "Invalid round number"
	ErrMatchNotFound          = "Match not found"
	ErrRoundNotFound          = "Round not found"
	ErrFailedFetchCards       = "Failed to fetch cards"
	ErrFailedFetchLeaderboard = "Failed to fetch leaderboard"
	ErrFailedEncodeMatch      = "Failed to encode match"
	ErrPlayerIDRequired       = "Player identity is required"
	ErrInvalidPlayerID        = "Invalid player identity"
	ErrDisplayNameExceeds     = "Display name exceeds 32 characters"
	ErrMatchNameExceeds       = "Match name exceeds 32 characters"

	ErrFailedCreateMatch    = "Failed to create match"
	ErrMatchFull            = "Match is full"
	ErrAlreadyInMatch       = "Player already in this match"
	ErrNotEnoughPlayers     = "Not enough players to start the match"
	ErrMatchAlreadyStarted  = "Match is already started"
	ErrFailedUpdateMatch    = "Failed to update match"
	ErrFailedEndMatch       = "Failed to end match"
	ErrPlayerNotInThisMatch = "Player not in this match"

	ErrFailedStorePlacements = "Failed to store placements"
	ErrMatchNotInProgress    = "Match is not in progress"
	ErrPlacementsLocked      = "Placements are locked; resolving current round"
	ErrAlreadySubmitted      = "Placements already submitted for this round"
	ErrInvalidPlacement      = "Invalid placement"
	ErrInsufficientMana      = "Not enough mana for these placements"
	ErrCardDormant           = "Card is dormant"
	ErrCardNotOwned          = "Card is not owned by this player"
	ErrStreamingNotSupported = "Streaming not supported"

	ErrArtworkNotFound       = "Artwork not found"
	ErrImageGenerationFailed = "Image generation failed"
)

// Logging field names
const (
	LogFieldMatchID  = "match_id"
	LogFieldRound    = "round"
	LogFieldPlayerID = "player_id"
	LogFieldName     = "name"
	LogFieldAddr     = "addr"
	LogFieldDuration = "duration_ms"
	LogFieldWinner   = "winner"
	LogFieldEvents   = "events"
	LogFieldKey      = "key"
)
