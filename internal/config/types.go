package config

type Config struct {
	Version  int      `yaml:"version"`
	Defaults Defaults `yaml:"defaults"`
}

type Defaults struct {
	DestinationDir        string `yaml:"destination_dir"`
	MaxParallelJobs       int    `yaml:"max_parallel_jobs"`
	MergeTool             string `yaml:"merge_tool"`
	ServeAddr             string `yaml:"serve_addr"`
	CommandTimeoutSeconds int    `yaml:"command_timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		Version: 1,
		Defaults: Defaults{
			DestinationDir:        defaultDestinationDir(),
			MaxParallelJobs:       2,
			MergeTool:             "ffmpeg",
			ServeAddr:             ":8080",
			CommandTimeoutSeconds: 900,
		},
	}
}
