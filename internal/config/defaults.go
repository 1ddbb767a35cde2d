package config

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultLogPath is the default directory scanned for event logs
	DefaultLogPath = "."
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "step-reports.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultProcessors is the default number of replay workers
	DefaultProcessors = 4
	// DefaultNamespace is the autotest namespace used when none is configured
	DefaultNamespace = "CodeceptJS"
	// DefaultLogLevel is the default diagnostic log level
	DefaultLogLevel = "info"
	// FileName is the optional project configuration file
	FileName = ".stepagg.yml"
	// EnvFileName is the optional dotenv file holding database settings
	EnvFileName = ".env"
)

// Database defaults, used when neither the environment nor .env sets them
const (
	DefaultDBHost = "127.0.0.1"
	DefaultDBPort = "3306"
	DefaultDBUser = "root"
	DefaultDBName = "stepagg"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for event logs
var DefaultPathsToIgnore = []string{
	"vendor",
	"node_modules",
	"storage",
	"output",
}
