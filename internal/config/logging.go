package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// SetupLogging 配置 logrus：生产环境输出 JSON，其他环境输出带时间的文本
func (c *Config) SetupLogging() {
	if c.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithError(err).Warnf("Unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
