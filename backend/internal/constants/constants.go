package constants

// Discord constants
const (
	// DiscordMaxMessageLength is the maximum character limit for Discord messages
	DiscordMaxMessageLength = 2000

	// DiscordCommandPrefix starts every bot command
	DiscordCommandPrefix = "!"
)

// Memorization constants
const (
	// MaxConcurrentSummaries bounds parallel summary requests per memorize run
	MaxConcurrentSummaries = 4

	// MinTopicRunes drops segmenter tokens shorter than this
	MinTopicRunes = 2

	// MaxSourceTextRunes caps the text sent to the remote endpoint in one prompt
	MaxSourceTextRunes = 6000
)

// Recall constants
const (
	// DefaultProminentFragments and DefaultProminentDegree are the thresholds
	// for the prominent concept view
	DefaultProminentFragments = 2
	DefaultProminentDegree    = 2
)

// Ingestion constants
const (
	// MaxPageTextRunes caps text extracted from a fetched page
	MaxPageTextRunes = 20000

	// MaxPageBytes caps the bytes read from a fetched page
	MaxPageBytes = 4 << 20
)
